// Package socrata pages through the CSV export of a Socrata dataset. Paging
// is offset based: the page at offset o holds up to limit rows of the
// filtered window, and a page with zero rows marks the end of the dataset.
package socrata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sundar139/IOWA-Liquor-Sales/internal/datasource/httpds"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/parser/csv"
)

// Config points a Client at one dataset export.
type Config struct {
	// URL is the CSV export endpoint, e.g.
	// https://data.iowa.gov/resource/m3tr-qhgy.csv
	URL string

	// AppToken is the optional Socrata application token, sent as the
	// X-App-Token header on every request to lift throttling limits.
	AppToken string

	// StartDate and EndDate bound the extraction window on the dataset's
	// date column, both inclusive, formatted 2006-01-02. When either is
	// empty the window is unbounded.
	StartDate string
	EndDate   string

	// HTTP behavior, passed through to the underlying client.
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Page is one fetched page, with rows aligned to the requested columns.
type Page struct {
	Columns []string
	Rows    [][]any
}

// Client fetches dataset pages over HTTP with retry and backoff.
type Client struct {
	http    *httpds.Client
	baseURL string
	where   string
	columns []string
}

// NewClient builds a Client that fetches the given columns.
func NewClient(cfg Config, columns []string) *Client {
	hdr := http.Header{}
	if cfg.AppToken != "" {
		hdr.Set("X-App-Token", cfg.AppToken)
	}
	return &Client{
		http: httpds.NewClient(httpds.Config{
			Timeout:        cfg.Timeout,
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxBackoff:     cfg.MaxBackoff,
			BaseHeaders:    hdr,
		}),
		baseURL: cfg.URL,
		where:   whereClause(cfg.StartDate, cfg.EndDate),
		columns: columns,
	}
}

// whereClause renders the SoQL date window filter, or "" when unbounded.
func whereClause(start, end string) string {
	if start == "" || end == "" {
		return ""
	}
	return fmt.Sprintf("date BETWEEN '%sT00:00:00' AND '%sT23:59:59'", start, end)
}

// pageURL renders the export URL for one page.
func (c *Client) pageURL(offset, limit int64) string {
	q := url.Values{}
	q.Set("$select", "*")
	if c.where != "" {
		q.Set("$where", c.where)
	}
	q.Set("$limit", strconv.FormatInt(limit, 10))
	q.Set("$offset", strconv.FormatInt(offset, 10))

	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	return c.baseURL + sep + q.Encode()
}

// FetchPage fetches the page of up to limit rows starting at offset.
// Transient failures are retried inside the HTTP client; whatever error
// comes back here is final for this offset. An empty page has Rows of
// length zero and no error.
func (c *Client) FetchPage(ctx context.Context, offset, limit int64) (*Page, error) {
	resp, err := c.http.Get(ctx, c.pageURL(offset, limit), nil)
	if err != nil {
		return nil, fmt.Errorf("socrata: fetch offset=%d: %w", offset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("socrata: status %d fetching offset=%d", resp.StatusCode, offset)
	}

	rows, err := csv.ReadRows(resp.Body, c.columns)
	if err != nil {
		return nil, fmt.Errorf("socrata: page at offset=%d: %w", offset, err)
	}
	return &Page{Columns: c.columns, Rows: rows}, nil
}
