package search

import (
	"encoding/json"
	"errors"
	"testing"
)

type fakeSearcher struct {
	results []Result
	total   int
	err     error
}

func (f *fakeSearcher) Search(q Query) ([]Result, int, error) {
	return f.results, f.total, f.err
}

func (f *fakeSearcher) Healthy() bool { return true }

func TestServiceFallsBackWithoutMeili(t *testing.T) {
	fallback := &fakeSearcher{
		results: []Result{{Type: ResultProject, ID: "prj_1", Title: "Bakery rebrand"}},
		total:   1,
	}
	svc := NewService(nil, fallback)

	resp := svc.Search(Query{Text: "bakery"})
	if resp.Total != 1 || len(resp.Results) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Results[0].ID != "prj_1" {
		t.Errorf("unexpected hit: %+v", resp.Results[0])
	}
	if resp.Query != "bakery" {
		t.Errorf("query not echoed: %q", resp.Query)
	}
}

func TestServiceFallbackErrorYieldsEmptyResponse(t *testing.T) {
	fallback := &fakeSearcher{err: errors.New("db down")}
	svc := NewService(nil, fallback)

	resp := svc.Search(Query{Text: "anything"})
	if resp.Results == nil {
		t.Fatal("results must be non-nil for JSON encoding")
	}
	if len(resp.Results) != 0 || resp.Total != 0 {
		t.Errorf("expected empty response, got %+v", resp)
	}
}

func TestServiceResultsNeverNil(t *testing.T) {
	svc := NewService(nil, &fakeSearcher{})
	resp := svc.Search(Query{Text: "no matches"})
	if resp.Results == nil {
		t.Fatal("results must be non-nil")
	}
}

func TestHitToResult(t *testing.T) {
	raw := func(s string) json.RawMessage {
		b, _ := json.Marshal(s)
		return b
	}

	t.Run("project prefers title over name", func(t *testing.T) {
		r := hitToResult(map[string]json.RawMessage{
			"id":         raw("prj_1"),
			"name":       raw("bakery-site"),
			"title":      raw("Bakery Website Refresh"),
			"clientName": raw("Rosa's Bakery"),
			"status":     raw("in-progress"),
		}, ResultProject)
		if r.Title != "Bakery Website Refresh" {
			t.Errorf("unexpected title: %q", r.Title)
		}
		if r.Snippet != "Rosa's Bakery" {
			t.Errorf("unexpected snippet: %q", r.Snippet)
		}
	})

	t.Run("project falls back to name", func(t *testing.T) {
		r := hitToResult(map[string]json.RawMessage{
			"id":   raw("prj_2"),
			"name": raw("bakery-site"),
		}, ResultProject)
		if r.Title != "bakery-site" {
			t.Errorf("unexpected title: %q", r.Title)
		}
	})

	t.Run("client prefers company over email", func(t *testing.T) {
		r := hitToResult(map[string]json.RawMessage{
			"id":      raw("cl_1"),
			"name":    raw("Rosa Diaz"),
			"email":   raw("rosa@example.com"),
			"company": raw("Rosa's Bakery"),
		}, ResultClient)
		if r.Title != "Rosa Diaz" || r.Snippet != "Rosa's Bakery" {
			t.Errorf("unexpected result: %+v", r)
		}
	})
}
