// Package fetcher downloads vendor pages over HTTP and reads vendor sheets
// from XLSX and CSV files.
package fetcher

import (
	"context"
	"io"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher defines the interface for downloading remote pages.
type Fetcher interface {
	// Download fetches the URL and returns the body decoded to UTF-8.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// Document fetches the URL and parses it as HTML.
	Document(ctx context.Context, url string) (*goquery.Document, error)
}
