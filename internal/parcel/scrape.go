package parcel

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/big-sky-labs/parcel-cli/internal/model"
)

// DefaultCadastralURL is the public property-details page of the Montana
// State Library cadastral application.
const DefaultCadastralURL = "https://svc.mt.gov/msl/cadastral/?page=PropertyDetails&geocode="

// addressPatterns is the ordered regex ladder mined against the raw HTML:
// label-anchored patterns first, the generic state+zip pattern last.
var addressPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)Address:\s*</[^>]*>\s*([^<]*?[A-Z0-9 .#'-]+?,\s*MT\s*\d{5}(?:-\d{4})?)`),
	regexp.MustCompile(`(?im)Property Address\s*</[^>]*>\s*([^<]*?[A-Z0-9 .#'-]+?,\s*MT\s*\d{5}(?:-\d{4})?)`),
	regexp.MustCompile(`(?im)([A-Z0-9 .#'-]+?,\s*MT\s*\d{5}(?:-\d{4})?)`),
}

// CadastralScrapeStrategy regex-mines the legacy property-details HTML page.
// Inherently best-effort; its failure mode is identical to the other
// strategies so the chain needs no special-casing.
type CadastralScrapeStrategy struct {
	client  *http.Client
	baseURL string
}

// ScrapeOption configures the CadastralScrapeStrategy.
type ScrapeOption func(*CadastralScrapeStrategy)

// WithScrapeHTTPClient sets a custom HTTP client.
func WithScrapeHTTPClient(hc *http.Client) ScrapeOption {
	return func(s *CadastralScrapeStrategy) { s.client = hc }
}

// WithScrapeURL overrides the property-details base URL.
func WithScrapeURL(u string) ScrapeOption {
	return func(s *CadastralScrapeStrategy) { s.baseURL = u }
}

// NewCadastralScrapeStrategy creates a scrape strategy with a 30-second timeout.
func NewCadastralScrapeStrategy(opts ...ScrapeOption) *CadastralScrapeStrategy {
	s := &CadastralScrapeStrategy{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: DefaultCadastralURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Strategy.
func (s *CadastralScrapeStrategy) Name() string { return "cadastral_scrape" }

// Resolve implements Strategy.
func (s *CadastralScrapeStrategy) Resolve(ctx context.Context, geocode string) (*model.LookupResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+url.QueryEscape(geocode), nil)
	if err != nil {
		return nil, eris.Wrap(err, "cadastral_scrape: build request")
	}

	// The site serves different markup to non-browser clients.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "cadastral_scrape: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("cadastral_scrape: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, eris.Wrap(err, "cadastral_scrape: read body")
	}

	if address, ok := MineAddress(string(body)); ok {
		return &model.LookupResult{
			Success: true,
			Address: address,
			Geocode: geocode,
		}, nil
	}

	return nil, eris.Errorf("cadastral_scrape: address not found in HTML for geocode %s", geocode)
}

// MineAddress applies the regex ladder to raw HTML and returns the first
// capture that passes the address-shape validator, whitespace-collapsed.
func MineAddress(html string) (string, bool) {
	for _, pattern := range addressPatterns {
		for _, match := range pattern.FindAllStringSubmatch(html, -1) {
			if len(match) < 2 {
				continue
			}
			address := strings.Join(strings.Fields(match[1]), " ")
			if LooksLikeFullAddress(address) {
				return address, true
			}
		}
	}
	return "", false
}
