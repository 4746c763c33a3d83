// Package search powers the admin dashboard search box. Meilisearch is the
// primary backend; a PostgreSQL ILIKE query serves as the fallback so search
// keeps working when Meilisearch is down or not deployed.
package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultProject ResultType = "project"
	ResultClient  ResultType = "client"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet,omitempty"`
	Status  string     `json:"status,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// ProjectRecord is the data we index for a project.
type ProjectRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	ClientName string `json:"clientName"`
	Status     string `json:"status"`
}

// ClientRecord is the data we index for a client.
type ClientRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Status  string `json:"status"`
}
