package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menucraft/api/pkg/domain/organization"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/email"
	"github.com/menucraft/api/pkg/logger"
)

type sentEmail struct {
	to       string
	template email.Template
	data     any
}

type fakeSender struct {
	configured bool
	sent       []sentEmail
	err        error
}

func (f *fakeSender) Send(context.Context, *email.Message) error { return f.err }

func (f *fakeSender) SendTemplate(_ context.Context, to string, template email.Template, data any) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: to, template: template, data: data})
	return nil
}

func (f *fakeSender) IsConfigured() bool { return f.configured }

type fakeOrgRepo struct {
	orgs map[string]*organization.Organization
}

func (f *fakeOrgRepo) Create(context.Context, *organization.Organization) error { return nil }

func (f *fakeOrgRepo) GetByID(_ context.Context, id shared.ID) (*organization.Organization, error) {
	o, ok := f.orgs[id.String()]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrgRepo) GetBySlug(context.Context, string) (*organization.Organization, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeOrgRepo) GetByUser(context.Context, string) (*organization.Organization, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeOrgRepo) Update(context.Context, *organization.Organization) error { return nil }

func (f *fakeOrgRepo) List(context.Context, int, int) ([]*organization.Organization, int64, error) {
	return nil, 0, nil
}

func testOrg(t *testing.T) (*organization.Organization, *fakeOrgRepo) {
	t.Helper()
	now := time.Now()
	org := organization.Reconstitute(shared.NewID(), "Mario's", "marios", "owner@marios.io", now, now)
	return org, &fakeOrgRepo{orgs: map[string]*organization.Organization{org.ID().String(): org}}
}

func TestHandleExpiryWarningSendsToOwner(t *testing.T) {
	org, repo := testOrg(t)
	sender := &fakeSender{configured: true}
	h := NewBillingTaskHandler(repo, sender, "MenuCraft", "https://app.menucraft.io", logger.NewNop())

	task, err := NewExpiryWarningTask(ExpiryWarningPayload{
		OrganizationID: org.ID().String(),
		Severity:       "critical",
		Title:          "Grace Period Active",
		Message:        "Your subscription expired. You have 5 days left in your grace period.",
	})
	require.NoError(t, err)

	require.NoError(t, h.HandleExpiryWarning(context.Background(), task))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "owner@marios.io", sender.sent[0].to)
	assert.Equal(t, email.TemplateExpiryWarning, sender.sent[0].template)

	data, ok := sender.sent[0].data.(email.ExpiryWarningData)
	require.True(t, ok)
	assert.Equal(t, "Grace Period Active", data.Title)
	assert.Equal(t, "Mario's", data.OrgName)
	assert.Equal(t, "https://app.menucraft.io/billing", data.BillingURL)
}

func TestHandleExpiryWarningSkipsWhenUnconfigured(t *testing.T) {
	org, repo := testOrg(t)
	sender := &fakeSender{configured: false}
	h := NewBillingTaskHandler(repo, sender, "MenuCraft", "https://app.menucraft.io", logger.NewNop())

	task, err := NewExpiryWarningTask(ExpiryWarningPayload{OrganizationID: org.ID().String()})
	require.NoError(t, err)

	require.NoError(t, h.HandleExpiryWarning(context.Background(), task))
	assert.Empty(t, sender.sent)
}

func TestHandleExpiryWarningBadPayloadSkipsRetry(t *testing.T) {
	_, repo := testOrg(t)
	h := NewBillingTaskHandler(repo, &fakeSender{configured: true}, "MenuCraft", "https://app.menucraft.io", logger.NewNop())

	task := asynq.NewTask(TypeBillingExpiryWarning, []byte("not json"))
	err := h.HandleExpiryWarning(context.Background(), task)

	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleExpiryWarningUnknownOrgSkipsRetry(t *testing.T) {
	_, repo := testOrg(t)
	h := NewBillingTaskHandler(repo, &fakeSender{configured: true}, "MenuCraft", "https://app.menucraft.io", logger.NewNop())

	task, err := NewExpiryWarningTask(ExpiryWarningPayload{OrganizationID: "not-a-uuid"})
	require.NoError(t, err)

	err = h.HandleExpiryWarning(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleSuspendedSendsNotice(t *testing.T) {
	org, repo := testOrg(t)
	sender := &fakeSender{configured: true}
	h := NewBillingTaskHandler(repo, sender, "MenuCraft", "https://app.menucraft.io", logger.NewNop())

	task, err := NewSuspendedTask(SuspendedPayload{OrganizationID: org.ID().String()})
	require.NoError(t, err)

	require.NoError(t, h.HandleSuspended(context.Background(), task))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, email.TemplateSuspended, sender.sent[0].template)
	assert.Equal(t, "owner@marios.io", sender.sent[0].to)
}

func TestHandleSuspendedSendFailureRetries(t *testing.T) {
	org, repo := testOrg(t)
	sender := &fakeSender{configured: true, err: errors.New("smtp refused")}
	h := NewBillingTaskHandler(repo, sender, "MenuCraft", "https://app.menucraft.io", logger.NewNop())

	task, err := NewSuspendedTask(SuspendedPayload{OrganizationID: org.ID().String()})
	require.NoError(t, err)

	err = h.HandleSuspended(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleWelcomeEmail(t *testing.T) {
	_, repo := testOrg(t)
	sender := &fakeSender{configured: true}
	h := NewBillingTaskHandler(repo, sender, "MenuCraft", "https://app.menucraft.io", logger.NewNop())

	task, err := NewWelcomeEmailTask(WelcomeEmailPayload{
		UserEmail: "new@user.io",
		UserName:  "Mario",
		OrgName:   "Mario's",
		PlanName:  "FREE",
		TrialDays: 14,
	})
	require.NoError(t, err)

	require.NoError(t, h.HandleWelcomeEmail(context.Background(), task))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "new@user.io", sender.sent[0].to)
	assert.Equal(t, email.TemplateWelcome, sender.sent[0].template)

	data, ok := sender.sent[0].data.(email.WelcomeData)
	require.True(t, ok)
	assert.Equal(t, 14, data.TrialDays)
	assert.Equal(t, "https://app.menucraft.io/login", data.LoginURL)
}
