package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// updateByID builds a partial UPDATE from a column->value map. Columns are
// checked against the entity's allowlist and applied in sorted order so the
// generated SQL is deterministic. updated_at is touched on every call; all
// tables that accept partial updates carry that column.
func (s *PostgresStore) updateByID(ctx context.Context, table, id string, fields map[string]any, allowed map[string]struct{}) error {
	if len(fields) == 0 {
		return ErrEmptyUpdate
	}
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if _, ok := allowed[col]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	set := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	args = append(args, id)
	for i, col := range cols {
		set = append(set, fmt.Sprintf("%s=$%d", col, i+2))
		args = append(args, fields[col])
	}
	set = append(set, "updated_at=NOW()")

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id=$1`, table, strings.Join(set, ", "))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s rows: %w", table, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) deleteByID(ctx context.Context, table, id string) (int64, error) {
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, table), id)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete from %s rows: %w", table, err)
	}
	return affected, nil
}

// ---- Projects ----

const projectColumns = `id, name, title, client_name, client_id, status, budget, timeline, progress, featured, featured_order, created_at, updated_at`

var projectUpdateColumns = map[string]struct{}{
	"name": {}, "title": {}, "client_name": {}, "client_id": {}, "status": {},
	"budget": {}, "timeline": {}, "progress": {},
}

func scanProject(row interface{ Scan(...any) error }) (Project, error) {
	var item Project
	err := row.Scan(
		&item.ID, &item.Name, &item.Title, &item.ClientName, &item.ClientID,
		&item.Status, &item.Budget, &item.Timeline, &item.Progress,
		&item.Featured, &item.FeaturedOrder, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]Project, error) {
	return s.listProjects(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
}

func (s *PostgresStore) ListProjectsByClient(ctx context.Context, clientID string) ([]Project, error) {
	return s.listProjects(ctx, `SELECT `+projectColumns+` FROM projects WHERE client_id=$1 ORDER BY created_at DESC`, clientID)
}

func (s *PostgresStore) ListFeaturedProjects(ctx context.Context) ([]Project, error) {
	return s.listProjects(ctx, `SELECT `+projectColumns+` FROM projects WHERE featured ORDER BY featured_order ASC`)
}

func (s *PostgresStore) listProjects(ctx context.Context, query string, args ...any) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]Project, 0)
	for rows.Next() {
		item, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (Project, error) {
	return scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, projectID))
}

func (s *PostgresStore) InsertProject(ctx context.Context, item Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, title, client_name, client_id, status, budget, timeline, progress)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, item.ID, item.Name, item.Title, item.ClientName, item.ClientID, item.Status, item.Budget, item.Timeline, item.Progress)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProject(ctx context.Context, projectID string, fields map[string]any) error {
	return s.updateByID(ctx, "projects", projectID, fields, projectUpdateColumns)
}

// SetProjectFeatured toggles the landing-page flag. Featuring is a single
// conditional UPDATE so two concurrent toggles cannot exceed the three slots
// or double-book an order.
func (s *PostgresStore) SetProjectFeatured(ctx context.Context, projectID string, featured bool, order int) error {
	if !featured {
		result, err := s.db.ExecContext(ctx, `
			UPDATE projects SET featured=FALSE, featured_order=NULL, updated_at=NOW() WHERE id=$1
		`, projectID)
		if err != nil {
			return fmt.Errorf("unfeature project: %w", err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return sql.ErrNoRows
		}
		return nil
	}

	if order < 1 || order > 3 {
		return fmt.Errorf("%w: featured_order must be 1-3", ErrFeaturedLimit)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE id=$1)`, projectID).Scan(&exists); err != nil {
		return fmt.Errorf("check project: %w", err)
	}
	if !exists {
		return sql.ErrNoRows
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE projects SET featured=TRUE, featured_order=$2, updated_at=NOW()
		WHERE id=$1
			AND (SELECT COUNT(*) FROM projects WHERE featured AND id<>$1) < 3
			AND NOT EXISTS (SELECT 1 FROM projects WHERE featured AND featured_order=$2 AND id<>$1)
	`, projectID, order)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrFeaturedLimit
		}
		return fmt.Errorf("feature project: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrFeaturedLimit
	}
	return nil
}

func (s *PostgresStore) DeleteProject(ctx context.Context, projectID string) (int64, error) {
	return s.deleteByID(ctx, "projects", projectID)
}

// ---- Clients ----

const clientColumns = `id, name, email, company, phone, website, business_name, address, project_count, total_spent, created_at, updated_at`

var clientUpdateColumns = map[string]struct{}{
	"name": {}, "email": {}, "company": {}, "phone": {}, "website": {},
	"business_name": {}, "address": {},
}

func scanClient(row interface{ Scan(...any) error }) (Client, error) {
	var item Client
	err := row.Scan(
		&item.ID, &item.Name, &item.Email, &item.Company, &item.Phone,
		&item.Website, &item.BusinessName, &item.Address,
		&item.ProjectCount, &item.TotalSpent, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}

func (s *PostgresStore) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	items := make([]Client, 0)
	for rows.Next() {
		item, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetClient(ctx context.Context, clientID string) (Client, error) {
	return scanClient(s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id=$1`, clientID))
}

func (s *PostgresStore) GetClientByEmail(ctx context.Context, email string) (Client, error) {
	return scanClient(s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE LOWER(email)=LOWER($1)`, email))
}

func (s *PostgresStore) InsertClient(ctx context.Context, item Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, email, company, phone, website, business_name, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, item.ID, item.Name, item.Email, item.Company, item.Phone, item.Website, item.BusinessName, item.Address)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateClient(ctx context.Context, clientID string, fields map[string]any) error {
	return s.updateByID(ctx, "clients", clientID, fields, clientUpdateColumns)
}

func (s *PostgresStore) DeleteClient(ctx context.Context, clientID string) (int64, error) {
	return s.deleteByID(ctx, "clients", clientID)
}

// RecalculateClientStats recomputes the denormalized project count and total
// spent from the projects table. Quote projects carry no spend so only the
// count reflects them.
func (s *PostgresStore) RecalculateClientStats(ctx context.Context, clientID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE clients SET
			project_count = (SELECT COUNT(*) FROM projects WHERE client_id=$1),
			total_spent = COALESCE((SELECT SUM(budget) FROM projects WHERE client_id=$1 AND status='completed'), 0),
			updated_at = NOW()
		WHERE id=$1
	`, clientID)
	if err != nil {
		return fmt.Errorf("recalculate client stats: %w", err)
	}
	return nil
}

// ---- Client contacts ----

func (s *PostgresStore) ListClientContacts(ctx context.Context, clientID string) ([]ClientContact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, name, email, phone, role, is_primary, created_at, updated_at
		FROM client_contacts
		WHERE client_id=$1
		ORDER BY is_primary DESC, created_at ASC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list client contacts: %w", err)
	}
	defer rows.Close()

	items := make([]ClientContact, 0)
	for rows.Next() {
		var item ClientContact
		if err := rows.Scan(&item.ID, &item.ClientID, &item.Name, &item.Email, &item.Phone, &item.Role, &item.IsPrimary, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan client contact: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client contacts: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertClientContact(ctx context.Context, item ClientContact) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_contacts (id, client_id, name, email, phone, role, is_primary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, item.ID, item.ClientID, item.Name, item.Email, item.Phone, item.Role, item.IsPrimary)
	if err != nil {
		return fmt.Errorf("insert client contact: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteClientContact(ctx context.Context, contactID string) (int64, error) {
	return s.deleteByID(ctx, "client_contacts", contactID)
}
