package geocoder

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// DefaultCensusURL is the US Census one-line address geocoder endpoint.
const DefaultCensusURL = "https://geocoding.geo.census.gov/geocoder/locations/onelineaddress"

const censusBenchmark = "Public_AR_Current"

// censusResponse is the JSON response from the Census single-address API.
type censusResponse struct {
	Result struct {
		AddressMatches []struct {
			Coordinates struct {
				X float64 `json:"x"` // longitude
				Y float64 `json:"y"` // latitude
			} `json:"coordinates"`
			MatchedAddress string `json:"matchedAddress"`
		} `json:"addressMatches"`
	} `json:"result"`
}

// censusStateRe extracts the state code from a matched address like
// "2324 REHBERG LN, BILLINGS, MT, 59102".
var censusStateRe = regexp.MustCompile(`,\s*([A-Z]{2})\s*,\s*\d{5}`)

// CensusProvider geocodes through the US Census address geocoder. Census
// matches are house-number level but carry no relevance signal.
type CensusProvider struct {
	client  *http.Client
	baseURL string
}

// CensusOption configures the CensusProvider.
type CensusOption func(*CensusProvider)

// WithCensusHTTPClient sets a custom HTTP client.
func WithCensusHTTPClient(hc *http.Client) CensusOption {
	return func(p *CensusProvider) { p.client = hc }
}

// WithCensusURL overrides the endpoint.
func WithCensusURL(u string) CensusOption {
	return func(p *CensusProvider) { p.baseURL = u }
}

// NewCensusProvider creates a CensusProvider.
func NewCensusProvider(opts ...CensusOption) *CensusProvider {
	p := &CensusProvider{
		client:  &http.Client{Timeout: 12 * time.Second},
		baseURL: DefaultCensusURL,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Name implements Provider.
func (p *CensusProvider) Name() string { return "census" }

// Available implements Provider.
func (p *CensusProvider) Available() bool { return true }

// Geocode implements Provider.
func (p *CensusProvider) Geocode(ctx context.Context, address string) ([]Candidate, error) {
	params := url.Values{
		"address":   {address},
		"benchmark": {censusBenchmark},
		"format":    {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "census: build request")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "census: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("census: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "census: read body")
	}

	var parsed censusResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "census: parse response")
	}

	candidates := make([]Candidate, 0, len(parsed.Result.AddressMatches))
	for _, match := range parsed.Result.AddressMatches {
		c := Candidate{
			Lat:      match.Coordinates.Y,
			Lng:      match.Coordinates.X,
			Type:     "house", // one-line matches are house-number level
			Provider: "census",
		}
		if fields := strings.Fields(match.MatchedAddress); len(fields) > 0 && isDigits(fields[0]) {
			c.HouseNumber = strings.TrimSuffix(fields[0], ",")
		}
		if m := censusStateRe.FindStringSubmatch(match.MatchedAddress); m != nil {
			c.State = m[1]
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// isDigits reports whether s is a non-empty run of digits (with an optional
// trailing comma from the matched-address format).
func isDigits(s string) bool {
	s = strings.TrimSuffix(s, ",")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
