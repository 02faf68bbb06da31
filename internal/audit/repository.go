// Package audit records authorisation decisions for the platform audit
// trail. Every protected-route decision (admit or reject, with the error
// kind on rejection) lands here; the trail is append-only from the gate's
// perspective.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Decision represents a single authorisation decision entry.
type Decision struct {
	ID        string    `json:"id"`
	Outcome   string    `json:"outcome"` // "admit" or "reject"
	Kind      string    `json:"kind,omitempty"`
	SubjectID string    `json:"subject_id,omitempty"`
	Role      string    `json:"role,omitempty"`
	Route     string    `json:"route"`
	CreatedAt time.Time `json:"created_at"`
}

// Decision outcomes.
const (
	OutcomeAdmit  = "admit"
	OutcomeReject = "reject"
)

// Filter controls which decisions to return.
type Filter struct {
	Outcome   string // optional: filter by outcome (admit, reject)
	Kind      string // optional: filter by error kind
	SubjectID string // optional: filter by subject
	Limit     int    // default 50, max 200
	Offset    int    // pagination offset
}

// ListResult contains paginated decision results.
type ListResult struct {
	Decisions []Decision `json:"decisions"`
	Total     int        `json:"total"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

// Repository defines the interface for decision trail operations.
type Repository interface {
	Create(ctx context.Context, decision *Decision) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores authorisation decisions in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new decision trail repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new decision entry. The ID and CreatedAt are generated
// if empty.
func (r *SQLiteRepository) Create(ctx context.Context, decision *Decision) error {
	if decision.ID == "" {
		decision.ID = "dec-" + uuid.NewString()[:8]
	}
	if decision.CreatedAt.IsZero() {
		decision.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_decisions (id, outcome, kind, subject_id, role, route, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		decision.ID, decision.Outcome,
		nullableString(decision.Kind), nullableString(decision.SubjectID),
		nullableString(decision.Role), decision.Route,
		decision.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting auth decision: %w", err)
	}

	return nil
}

// nullableString returns nil for empty strings, used for nullable TEXT
// columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns decisions matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 { //nolint:mnd // max page size for decision queries
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, filter.Outcome)
	}
	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, "subject_id = ?")
		args = append(args, filter.SubjectID)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// WHERE is assembled from parameterised conditions only; no user
	// input reaches the SQL string.
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM auth_decisions %s", where) //nolint:gosec
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting auth decisions: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions
		"SELECT id, outcome, kind, subject_id, role, route, created_at FROM auth_decisions %s ORDER BY created_at DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying auth decisions: %w", err)
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		var d Decision
		var kind, subjectID, role sql.NullString
		var createdAt string

		if err := rows.Scan(&d.ID, &d.Outcome, &kind, &subjectID, &role, &d.Route, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning auth decision: %w", err)
		}

		if kind.Valid {
			d.Kind = kind.String
		}
		if subjectID.Valid {
			d.SubjectID = subjectID.String
		}
		if role.Valid {
			d.Role = role.String
		}

		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing decision timestamp %q: %w", createdAt, err)
		}
		d.CreatedAt = t

		decisions = append(decisions, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating auth decisions: %w", err)
	}

	if decisions == nil {
		decisions = []Decision{}
	}

	return &ListResult{
		Decisions: decisions,
		Total:     total,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}, nil
}
