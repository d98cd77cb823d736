package socrata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig(url string) Config {
	return Config{
		URL:            url,
		AppToken:       "token-123",
		StartDate:      "2023-01-01",
		EndDate:        "2023-12-31",
		Timeout:        2 * time.Second,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

// TestFetchPageRequest verifies the SoQL query parameters, the app token
// header, and that the response rows come back aligned to the requested
// column order.
func TestFetchPageRequest(t *testing.T) {
	t.Parallel()

	var gotQuery, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotToken = r.Header.Get("X-App-Token")
		w.Write([]byte("date,invoice_line_no\n2023-03-05T00:00:00,INV-001\n"))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), []string{"invoice_line_no", "date"})

	page, err := c.FetchPage(context.Background(), 100000, 50000)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	q := gotQuery
	for _, frag := range []string{
		"%24select=%2A",
		"%24limit=50000",
		"%24offset=100000",
		"BETWEEN+%272023-01-01T00%3A00%3A00%27",
		"%272023-12-31T23%3A59%3A59%27",
	} {
		if !strings.Contains(q, frag) {
			t.Errorf("query %q missing %q", q, frag)
		}
	}
	if gotToken != "token-123" {
		t.Errorf("X-App-Token = %q", gotToken)
	}

	if len(page.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(page.Rows))
	}
	if page.Rows[0][0] != "INV-001" || page.Rows[0][1] != "2023-03-05T00:00:00" {
		t.Errorf("row not aligned to requested columns: %v", page.Rows[0])
	}
}

// TestFetchPageEmpty verifies that a body with no rows is a valid
// end-of-data page, not an error.
func TestFetchPageEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), []string{"invoice_line_no"})
	page, err := c.FetchPage(context.Background(), 0, 50000)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(page.Rows) != 0 {
		t.Errorf("empty page came back with %d rows", len(page.Rows))
	}
}

// TestFetchPagePermanentError verifies that a non-retryable status fails
// once, without burning the retry budget.
func TestFetchPagePermanentError(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), []string{"invoice_line_no"})
	_, err := c.FetchPage(context.Background(), 50000, 50000)
	if err == nil {
		t.Fatal("FetchPage() returned nil error for a 403")
	}
	if !strings.Contains(err.Error(), "status 403") || !strings.Contains(err.Error(), "offset=50000") {
		t.Errorf("error = %q, want status and offset", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}
}

// TestFetchPageRetriesTransient verifies that a 500 is retried and the
// recovered page comes back clean.
func TestFetchPageRetriesTransient(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("invoice_line_no\nINV-001\n"))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), []string{"invoice_line_no"})
	page, err := c.FetchPage(context.Background(), 0, 50000)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(page.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(page.Rows))
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("server hit %d times, want 2", got)
	}
}

func TestWhereClause(t *testing.T) {
	t.Parallel()

	if got := whereClause("", ""); got != "" {
		t.Errorf("unbounded window = %q, want empty", got)
	}
	if got := whereClause("2023-01-01", ""); got != "" {
		t.Errorf("half-open window = %q, want empty", got)
	}
	want := "date BETWEEN '2023-01-01T00:00:00' AND '2023-12-31T23:59:59'"
	if got := whereClause("2023-01-01", "2023-12-31"); got != want {
		t.Errorf("whereClause = %q, want %q", got, want)
	}
}

func TestPageURLAppendsToExistingQuery(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{URL: "https://example.org/resource/abc.csv?foo=1"}, []string{"invoice_line_no"})
	u := c.pageURL(0, 10)
	if !strings.HasPrefix(u, "https://example.org/resource/abc.csv?foo=1&") {
		t.Errorf("pageURL = %q, want query appended with &", u)
	}
}
