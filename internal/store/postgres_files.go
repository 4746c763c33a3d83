package store

import (
	"context"
	"fmt"
)

// ---- Files ----

const fileColumns = `id, project_id, name, file_type, url, size, uploaded_by, created_at`

func scanFile(row interface{ Scan(...any) error }) (File, error) {
	var item File
	err := row.Scan(&item.ID, &item.ProjectID, &item.Name, &item.FileType, &item.URL, &item.Size, &item.UploadedBy, &item.CreatedAt)
	return item, err
}

func (s *PostgresStore) ListFilesByProject(ctx context.Context, projectID string) ([]File, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM files WHERE project_id=$1 ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	items := make([]File, 0)
	for rows.Next() {
		item, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetFile(ctx context.Context, fileID string) (File, error) {
	return scanFile(s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id=$1`, fileID))
}

func (s *PostgresStore) InsertFile(ctx context.Context, item File) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (id, project_id, name, file_type, url, size, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, item.ID, item.ProjectID, item.Name, item.FileType, item.URL, item.Size, item.UploadedBy)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteFile(ctx context.Context, fileID string) (int64, error) {
	return s.deleteByID(ctx, "files", fileID)
}

// ---- Messages ----

const messageColumns = `id, sender_id, recipient_id, project_id, subject, body, read, created_at`

func scanMessage(row interface{ Scan(...any) error }) (Message, error) {
	var item Message
	err := row.Scan(&item.ID, &item.SenderID, &item.RecipientID, &item.ProjectID, &item.Subject, &item.Body, &item.Read, &item.CreatedAt)
	return item, err
}

// ListMessagesForUser returns every message the user sent or received,
// newest first, optionally scoped to one project. Conversation grouping is
// done in memory by the caller.
func (s *PostgresStore) ListMessagesForUser(ctx context.Context, userID, projectID string) ([]Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE (sender_id=$1 OR recipient_id=$1) ORDER BY created_at DESC`
	args := []any{userID}
	if projectID != "" {
		query = `SELECT ` + messageColumns + ` FROM messages WHERE (sender_id=$1 OR recipient_id=$1) AND project_id=$2 ORDER BY created_at DESC`
		args = append(args, projectID)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]Message, 0)
	for rows.Next() {
		item, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertMessage(ctx context.Context, item Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, sender_id, recipient_id, project_id, subject, body)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, item.ID, item.SenderID, item.RecipientID, item.ProjectID, item.Subject, item.Body)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// MarkMessagesRead flips the read flag on the given messages, but only those
// addressed to recipientID. Returns the number of rows changed.
func (s *PostgresStore) MarkMessagesRead(ctx context.Context, recipientID string, messageIDs []string) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE messages SET read=TRUE WHERE recipient_id=$1 AND id = ANY($2)
	`, recipientID, messageIDs)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark messages read rows: %w", err)
	}
	return affected, nil
}
