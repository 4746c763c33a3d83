package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// ---- Reviews ----

const reviewColumns = `id, client_name, client_title, company, rating, review_text, project_name, project_id, image_url, is_active, sort_order, source, source_url, verified, featured, created_at, updated_at`

var reviewUpdateColumns = map[string]struct{}{
	"client_name": {}, "client_title": {}, "company": {}, "rating": {},
	"review_text": {}, "project_name": {}, "project_id": {}, "image_url": {},
	"is_active": {}, "sort_order": {}, "source": {}, "source_url": {},
	"verified": {}, "featured": {},
}

func scanReview(row interface{ Scan(...any) error }) (Review, error) {
	var item Review
	err := row.Scan(
		&item.ID, &item.ClientName, &item.ClientTitle, &item.Company, &item.Rating,
		&item.ReviewText, &item.ProjectName, &item.ProjectID, &item.ImageURL,
		&item.IsActive, &item.SortOrder, &item.Source, &item.SourceURL,
		&item.Verified, &item.Featured, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}

func (s *PostgresStore) ListReviews(ctx context.Context, activeOnly bool) ([]Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews ORDER BY sort_order ASC, created_at DESC`
	if activeOnly {
		query = `SELECT ` + reviewColumns + ` FROM reviews WHERE is_active ORDER BY sort_order ASC, created_at DESC`
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	items := make([]Review, 0)
	for rows.Next() {
		item, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetReview(ctx context.Context, reviewID string) (Review, error) {
	return scanReview(s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id=$1`, reviewID))
}

func (s *PostgresStore) InsertReview(ctx context.Context, item Review) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, client_name, client_title, company, rating, review_text, project_name, project_id, image_url, is_active, sort_order, source, source_url, verified, featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, item.ID, item.ClientName, item.ClientTitle, item.Company, item.Rating,
		item.ReviewText, item.ProjectName, item.ProjectID, item.ImageURL,
		item.IsActive, item.SortOrder, item.Source, item.SourceURL, item.Verified, item.Featured)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateReview(ctx context.Context, reviewID string, fields map[string]any) error {
	return s.updateByID(ctx, "reviews", reviewID, fields, reviewUpdateColumns)
}

func (s *PostgresStore) DeleteReview(ctx context.Context, reviewID string) (int64, error) {
	return s.deleteByID(ctx, "reviews", reviewID)
}

// ---- Services ----

const serviceColumns = `id, title, description, audience, features, disclaimer, price, category, hardware_included, active, sort_order, created_at, updated_at`

var serviceUpdateColumns = map[string]struct{}{
	"title": {}, "description": {}, "audience": {}, "features": {},
	"disclaimer": {}, "price": {}, "category": {}, "hardware_included": {},
	"active": {}, "sort_order": {},
}

func scanService(row interface{ Scan(...any) error }) (Service, error) {
	var item Service
	var features []byte
	err := row.Scan(
		&item.ID, &item.Title, &item.Description, &item.Audience, &features,
		&item.Disclaimer, &item.Price, &item.Category, &item.HardwareIncluded,
		&item.Active, &item.SortOrder, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return Service{}, err
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &item.Features); err != nil {
			return Service{}, fmt.Errorf("decode service features: %w", err)
		}
	}
	return item, nil
}

func (s *PostgresStore) ListServices(ctx context.Context, activeOnly bool) ([]Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services ORDER BY sort_order ASC, created_at DESC`
	if activeOnly {
		query = `SELECT ` + serviceColumns + ` FROM services WHERE active ORDER BY sort_order ASC, created_at DESC`
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	items := make([]Service, 0)
	for rows.Next() {
		item, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetService(ctx context.Context, serviceID string) (Service, error) {
	return scanService(s.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id=$1`, serviceID))
}

func (s *PostgresStore) InsertService(ctx context.Context, item Service) error {
	features, err := json.Marshal(item.Features)
	if err != nil {
		return fmt.Errorf("encode service features: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO services (id, title, description, audience, features, disclaimer, price, category, hardware_included, active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, item.ID, item.Title, item.Description, item.Audience, features,
		item.Disclaimer, item.Price, item.Category, item.HardwareIncluded, item.Active, item.SortOrder)
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	return nil
}

// UpdateService accepts the same column map contract as the other entities.
// A "features" value may be passed as []string; it is encoded to JSON here.
func (s *PostgresStore) UpdateService(ctx context.Context, serviceID string, fields map[string]any) error {
	if features, ok := fields["features"].([]string); ok {
		encoded, err := json.Marshal(features)
		if err != nil {
			return fmt.Errorf("encode service features: %w", err)
		}
		fields["features"] = encoded
	}
	return s.updateByID(ctx, "services", serviceID, fields, serviceUpdateColumns)
}

func (s *PostgresStore) DeleteService(ctx context.Context, serviceID string) (int64, error) {
	return s.deleteByID(ctx, "services", serviceID)
}

// ---- Notifications ----

func (s *PostgresStore) ListNotifications(ctx context.Context, unreadOnly bool) ([]Notification, error) {
	query := `SELECT id, type, title, message, link, read, created_at FROM notifications ORDER BY created_at DESC`
	if unreadOnly {
		query = `SELECT id, type, title, message, link, read, created_at FROM notifications WHERE NOT read ORDER BY created_at DESC`
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]Notification, 0)
	for rows.Next() {
		var item Notification
		if err := rows.Scan(&item.ID, &item.Type, &item.Title, &item.Message, &item.Link, &item.Read, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertNotification(ctx context.Context, item Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, type, title, message, link)
		VALUES ($1, $2, $3, $4, $5)
	`, item.ID, item.Type, item.Title, item.Message, item.Link)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, notificationID string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE notifications SET read=TRUE WHERE id=$1`, notificationID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `UPDATE notifications SET read=TRUE WHERE NOT read`)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
