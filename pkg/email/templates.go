package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template represents a predefined email template type.
type Template string

const (
	// TemplateWelcome greets a freshly onboarded organization owner.
	TemplateWelcome Template = "welcome"
	// TemplateExpiryWarning carries a staged subscription notice. The
	// notice text is computed by the billing domain; the template only
	// frames it.
	TemplateExpiryWarning Template = "expiry_warning"
	// TemplateSuspended tells the owner access has been suspended.
	TemplateSuspended Template = "suspended"
)

// WelcomeData holds data for the welcome email template.
type WelcomeData struct {
	UserName   string
	OrgName    string
	PlanName   string
	TrialDays  int
	LoginURL   string
	AppName    string
	SupportURL string
}

// ExpiryWarningData holds data for the expiry warning template.
type ExpiryWarningData struct {
	OrgName    string
	Title      string
	Message    string
	BillingURL string
	AppName    string
}

// SuspendedData holds data for the suspension notice template.
type SuspendedData struct {
	OrgName    string
	BillingURL string
	AppName    string
}

// TemplateEngine handles email template rendering.
type TemplateEngine struct {
	templates map[Template]*templateDef
}

type templateDef struct {
	subjectTmpl *template.Template
	bodyTmpl    *template.Template
}

// NewTemplateEngine creates a new template engine with all predefined templates.
func NewTemplateEngine() *TemplateEngine {
	engine := &TemplateEngine{
		templates: make(map[Template]*templateDef),
	}
	engine.registerTemplates()
	return engine
}

// Render renders a template with the given data.
func (e *TemplateEngine) Render(tmpl Template, data any) (subject string, body string, err error) {
	def, ok := e.templates[tmpl]
	if !ok {
		return "", "", fmt.Errorf("template %s not found", tmpl)
	}

	var subjectBuf bytes.Buffer
	if err := def.subjectTmpl.Execute(&subjectBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute subject template: %w", err)
	}

	var bodyBuf bytes.Buffer
	if err := def.bodyTmpl.Execute(&bodyBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute body template: %w", err)
	}

	return subjectBuf.String(), bodyBuf.String(), nil
}

func (e *TemplateEngine) registerTemplates() {
	e.templates[TemplateWelcome] = &templateDef{
		subjectTmpl: template.Must(template.New("welcome_subject").Parse("Welcome to {{.AppName}}")),
		bodyTmpl:    template.Must(template.New("welcome").Parse(welcomeTemplate)),
	}

	e.templates[TemplateExpiryWarning] = &templateDef{
		subjectTmpl: template.Must(template.New("expiry_warning_subject").Parse("{{.Title}}")),
		bodyTmpl:    template.Must(template.New("expiry_warning").Parse(expiryWarningTemplate)),
	}

	e.templates[TemplateSuspended] = &templateDef{
		subjectTmpl: template.Must(template.New("suspended_subject").Parse("Your subscription has been suspended")),
		bodyTmpl:    template.Must(template.New("suspended").Parse(suspendedTemplate)),
	}
}

const welcomeTemplate = `
<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>Welcome to {{.AppName}}, {{.UserName}}!</h2>
  <p>Your organization <strong>{{.OrgName}}</strong> is ready. You are on the
  {{.PlanName}} plan with a {{.TrialDays}}-day trial of every feature.</p>
  <p><a href="{{.LoginURL}}">Sign in</a> to create your first restaurant and menu.</p>
  <p>Questions? Visit <a href="{{.SupportURL}}">our support center</a>.</p>
</body>
</html>
`

const expiryWarningTemplate = `
<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>{{.Title}}</h2>
  <p>A notice for <strong>{{.OrgName}}</strong>:</p>
  <p>{{.Message}}</p>
  <p><a href="{{.BillingURL}}">Manage billing</a></p>
</body>
</html>
`

const suspendedTemplate = `
<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>Your subscription has been suspended</h2>
  <p>The grace period for <strong>{{.OrgName}}</strong> has ended. Published
  menus stay online, but editing is disabled until billing is updated.</p>
  <p><a href="{{.BillingURL}}">Restore access</a></p>
</body>
</html>
`
