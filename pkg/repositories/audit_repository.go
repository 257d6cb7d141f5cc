package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/siddharth-k03/urgas/pkg/database"
	"github.com/siddharth-k03/urgas/pkg/models"
)

// auditLockKey serializes audit inserts across all connections.
const auditLockKey int64 = 0x6175646974 // "audit"

// AuditRepository provides append-only access to the project audit trail.
type AuditRepository interface {
	// Create appends an entry. It must run inside the transaction whose change it
	// documents. Entries are stamped with a timestamp no earlier than any existing
	// entry, and the transaction holds the audit lock until it ends, so the order
	// entries become visible matches their timestamps.
	Create(ctx context.Context, entry *models.AuditEntry) error

	// List returns up to limit entries newest first. When before > 0 only entries
	// with Seq < before are returned.
	List(ctx context.Context, before int64, limit int) ([]*models.AuditEntry, error)
}

type auditRepository struct{}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository() AuditRepository {
	return &auditRepository{}
}

var _ AuditRepository = (*auditRepository)(nil)

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}
	if !scope.InTx {
		return fmt.Errorf("audit entries must be written inside a transaction")
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	// Convert changes to JSONB
	var changesJSON []byte
	var err error
	if len(entry.Changes) > 0 {
		changesJSON, err = json.Marshal(entry.Changes)
		if err != nil {
			return fmt.Errorf("failed to marshal changes: %w", err)
		}
	}

	if _, err := scope.Conn.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, auditLockKey); err != nil {
		return fmt.Errorf("failed to acquire audit lock: %w", err)
	}

	query := `
		INSERT INTO project_audit (id, project_id, description, changes, created_at)
		SELECT $1, $2, $3, $4,
		       greatest(clock_timestamp(), coalesce(max(created_at), '-infinity'::timestamptz))
		FROM project_audit
		RETURNING seq, created_at`

	err = scope.Conn.QueryRow(ctx, query,
		entry.ID,
		entry.ProjectID,
		entry.Description,
		changesJSON,
	).Scan(&entry.Seq, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

func (r *auditRepository) List(ctx context.Context, before int64, limit int) ([]*models.AuditEntry, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	// seq order matches created_at order because inserts are serialized by the
	// audit lock; created_at leads the sort so the index is used.
	query := `
		SELECT seq, id, project_id, description, changes, created_at
		FROM project_audit
		WHERE $1 <= 0 OR seq < $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2`

	rows, err := scope.Conn.Query(ctx, query, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.AuditEntry, 0, limit)
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

func scanAuditEntry(row pgx.Row) (*models.AuditEntry, error) {
	var entry models.AuditEntry
	var changesJSON []byte

	err := row.Scan(
		&entry.Seq,
		&entry.ID,
		&entry.ProjectID,
		&entry.Description,
		&changesJSON,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit entry: %w", err)
	}

	if len(changesJSON) > 0 {
		if err := json.Unmarshal(changesJSON, &entry.Changes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal changes: %w", err)
		}
	}

	return &entry, nil
}
