package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"snda-browse/catalog"
)

func TestListURLOmitsEmptyFacets(t *testing.T) {
	client := NewClient("https://api.example.org")

	raw := client.ListURL(ListParams{Page: 1, PageSize: 10, Filters: catalog.FilterState{Urgency: catalog.UrgencyAll}})
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse URL: %v", err)
	}
	q := u.Query()

	if q.Get("page") != "1" || q.Get("page_size") != "10" {
		t.Errorf("pagination params = %q", u.RawQuery)
	}
	if q.Has("q") || q.Has("urgency") || q.Has("case_type") {
		t.Errorf("empty facets should be omitted, got %q", u.RawQuery)
	}
}

func TestListURLIncludesFilters(t *testing.T) {
	client := NewClient("https://api.example.org")

	raw := client.ListURL(ListParams{
		Page:     2,
		PageSize: 10,
		Filters: catalog.FilterState{
			Query:     "medic",
			Urgency:   catalog.UrgencyHigh,
			CaseTypes: []string{"medical", "education"},
		},
	})
	u, _ := url.Parse(raw)
	q := u.Query()

	if q.Get("q") != "medic" {
		t.Errorf("q = %q, want medic", q.Get("q"))
	}
	if q.Get("urgency") != "high" {
		t.Errorf("urgency = %q, want high", q.Get("urgency"))
	}
	if q.Get("case_type") != "medical,education" {
		t.Errorf("case_type = %q", q.Get("case_type"))
	}
	if q.Get("page") != "2" {
		t.Errorf("page = %q, want 2", q.Get("page"))
	}
}

func TestListURLDeterministic(t *testing.T) {
	client := NewClient("https://api.example.org")
	p := ListParams{Page: 1, PageSize: 10, Filters: catalog.FilterState{Query: "a", CaseTypes: []string{"x", "y"}}}

	if client.ListURL(p) != client.ListURL(p) {
		t.Error("ListURL should be deterministic for equal params")
	}
}

func TestListReferralsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/referrals/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"results":[{"id":"r1","title":"A"}],"next":"https://api/next","count":5}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, WithTimeout(5*time.Second))
	res, err := client.ListReferrals(context.Background(), ListParams{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListReferrals failed: %v", err)
	}

	if res.Shape != ShapeEnvelope {
		t.Errorf("Shape = %d, want envelope", res.Shape)
	}
	if len(res.Items) != 1 || res.Items[0].ID != "r1" {
		t.Errorf("Items = %+v", res.Items)
	}
	if res.Next != "https://api/next" {
		t.Errorf("Next = %q", res.Next)
	}
	if !res.HasCount || res.Count != 5 {
		t.Errorf("Count = %d (has=%v), want 5", res.Count, res.HasCount)
	}
}

func TestListReferralsEnvelopeNullNext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[],"next":null,"count":0}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	res, err := client.ListReferrals(context.Background(), ListParams{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListReferrals failed: %v", err)
	}

	if res.Shape != ShapeEnvelope {
		t.Errorf("Shape = %d, want envelope for empty results array", res.Shape)
	}
	if res.Next != "" {
		t.Errorf("Next = %q, want empty for null", res.Next)
	}
}

func TestListReferralsArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"title":"A"},{"id":2,"title":"B"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	res, err := client.ListReferrals(context.Background(), ListParams{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListReferrals failed: %v", err)
	}

	if res.Shape != ShapeArray {
		t.Errorf("Shape = %d, want array", res.Shape)
	}
	if len(res.Items) != 2 || res.Items[1].ID != "2" {
		t.Errorf("Items = %+v", res.Items)
	}
	if !res.HasCount || res.Count != 2 {
		t.Errorf("Count = %d, want 2", res.Count)
	}
}

func TestListReferralsUnknownShape(t *testing.T) {
	for _, body := range []string{`{"detail":"odd"}`, `"scalar"`, `{"results":null}`, ``} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		client := NewClient(server.URL)
		res, err := client.ListReferrals(context.Background(), ListParams{Page: 1, PageSize: 10})
		server.Close()
		if err != nil {
			t.Fatalf("ListReferrals(%q) failed: %v", body, err)
		}
		if res.Shape != ShapeUnknown {
			t.Errorf("Shape for %q = %d, want unknown", body, res.Shape)
		}
		if len(res.Items) != 0 {
			t.Errorf("Items for %q = %+v, want empty", body, res.Items)
		}
	}
}

func TestListReferralsServerErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"detail":"catalog temporarily unavailable"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.ListReferrals(context.Background(), ListParams{Page: 1, PageSize: 10})
	if err == nil {
		t.Fatal("expected error for 503")
	}
	if got := err.Error(); got != "list referrals: catalog temporarily unavailable (status 503)" {
		t.Errorf("error = %q", got)
	}
}

func TestListReferralsServerErrorGeneric(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.ListReferrals(context.Background(), ListParams{Page: 1, PageSize: 10})
	if err == nil {
		t.Fatal("expected error for 500")
	}
}

func TestFetchPageFollowsContinuation(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		w.Write([]byte(`{"results":[{"id":"r2","title":"B"}],"next":null,"count":5}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	res, err := client.FetchPage(context.Background(), server.URL+"/api/referrals/?cursor=abc")
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if gotPath != "/api/referrals/?cursor=abc" {
		t.Errorf("requested path = %q", gotPath)
	}
	if len(res.Items) != 1 || res.Items[0].ID != "r2" {
		t.Errorf("Items = %+v", res.Items)
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListReferrals(ctx, ListParams{Page: 1, PageSize: 10})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
