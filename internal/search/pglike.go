package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgLike implements Searcher with a case-insensitive substring match over the
// projects and clients tables. The dataset is a single agency's book of
// business, so ILIKE without trigram indexes is fine here.
type PgLike struct {
	db *sql.DB
}

// NewPgLike creates a PostgreSQL fallback searcher.
func NewPgLike(db *sql.DB) *PgLike {
	return &PgLike{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgLike) Healthy() bool {
	return true
}

// Search runs a UNION ALL over projects and clients ordered by recency.
func (p *PgLike) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	pattern := "%" + q.Text + "%"

	var subQueries []string
	if q.FilterType == "" || q.FilterType == ResultProject {
		subQueries = append(subQueries, `
			SELECT 'project'::text AS type, p.id,
				CASE WHEN p.title <> '' THEN p.title ELSE p.name END AS title,
				p.client_name AS snippet, p.status, p.updated_at
			FROM projects p
			WHERE p.name ILIKE $1 OR p.title ILIKE $1 OR p.client_name ILIKE $1`)
	}
	if q.FilterType == "" || q.FilterType == ResultClient {
		subQueries = append(subQueries, `
			SELECT 'client'::text AS type, c.id, c.name AS title,
				CASE WHEN c.company <> '' THEN c.company ELSE c.email END AS snippet,
				''::text AS status, c.updated_at
			FROM clients c
			WHERE c.name ILIKE $1 OR c.email ILIKE $1 OR c.company ILIKE $1`)
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	union := strings.Join(subQueries, " UNION ALL ")
	ctx := context.Background()

	var total int
	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub", union)
	if err := p.db.QueryRowContext(ctx, countSQL, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("search count: %w", err)
	}

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, status
		FROM (%s) sub
		ORDER BY updated_at DESC
		LIMIT %d OFFSET %d`, union, limit, offset)

	rows, err := p.db.QueryContext(ctx, dataSQL, pattern)
	if err != nil {
		return nil, 0, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("scan search result: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate search results: %w", err)
	}

	return results, total, nil
}
