package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/menucraft/api/pkg/domain/audit"
	"github.com/menucraft/api/pkg/domain/shared"
)

// AuditRepository implements audit.Repository using PostgreSQL.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends an audit entry.
func (r *AuditRepository) Create(ctx context.Context, e *audit.Entry) error {
	metadata, err := toJSONB(e.Metadata())
	if err != nil {
		return fmt.Errorf("failed to marshal audit metadata: %w", err)
	}

	query := `
		INSERT INTO audit_entries (id, organization_id, actor_id, action, message, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		e.ID().String(),
		e.OrganizationID().String(),
		nullID(e.ActorID()),
		string(e.Action()),
		e.Message(),
		metadata,
		e.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}
	return nil
}

// List returns entries matching the filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter audit.Filter, page, perPage int) ([]*audit.Entry, int64, error) {
	var (
		conds []string
		args  []any
	)
	if filter.OrganizationID != nil {
		args = append(args, filter.OrganizationID.String())
		conds = append(conds, fmt.Sprintf("organization_id = $%d", len(args)))
	}
	if filter.Action != nil {
		args = append(args, string(*filter.Action))
		conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_entries`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	args = append(args, (page-1)*perPage, perPage)
	query := fmt.Sprintf(
		`SELECT id, organization_id, actor_id, action, message, metadata, created_at
		 FROM audit_entries%s
		 ORDER BY created_at DESC
		 OFFSET $%d LIMIT $%d`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		var (
			id, orgID   shared.ID
			actorNull   sql.NullString
			actionStr   string
			message     string
			metadataRaw []byte
			createdAt   time.Time
		)
		if err := rows.Scan(&id, &orgID, &actorNull, &actionStr, &message, &metadataRaw, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		actorID := parseNullID(actorNull)

		metadata := make(map[string]any)
		if err := fromJSONB(metadataRaw, &metadata); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal audit metadata: %w", err)
		}
		entries = append(entries, audit.Reconstitute(id, orgID, actorID,
			audit.Action(actionStr), message, metadata, createdAt))
	}
	return entries, total, rows.Err()
}
