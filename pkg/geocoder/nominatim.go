package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// DefaultNominatimURL is the public OSM Nominatim search endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"

const nominatimUserAgent = "parcel-cli/1.0 (montana property lookup)"

// nominatimItem is one entry of the Nominatim jsonv2 response.
type nominatimItem struct {
	Lat        string  `json:"lat"`
	Lon        string  `json:"lon"`
	Type       string  `json:"type"`
	Class      string  `json:"class"`
	Importance float64 `json:"importance"`
	Address    struct {
		HouseNumber string `json:"house_number"`
		State       string `json:"state"`
	} `json:"address"`
}

// NominatimProvider geocodes through OSM Nominatim. The strict variant limits
// results to the region viewbox and returns only the best match, trading
// recall for precision.
type NominatimProvider struct {
	client  *http.Client
	baseURL string
	strict  bool
	region  BBox
	limit   int
}

// NominatimOption configures the NominatimProvider.
type NominatimOption func(*NominatimProvider)

// WithNominatimHTTPClient sets a custom HTTP client.
func WithNominatimHTTPClient(hc *http.Client) NominatimOption {
	return func(p *NominatimProvider) { p.client = hc }
}

// WithNominatimURL overrides the search endpoint.
func WithNominatimURL(u string) NominatimOption {
	return func(p *NominatimProvider) { p.baseURL = u }
}

// WithStrictBounds turns the provider into its precision-tuned variant:
// viewbox-bounded, single best result.
func WithStrictBounds(region BBox) NominatimOption {
	return func(p *NominatimProvider) {
		p.strict = true
		p.region = region
		p.limit = 1
	}
}

// NewNominatimProvider creates a NominatimProvider.
func NewNominatimProvider(opts ...NominatimOption) *NominatimProvider {
	p := &NominatimProvider{
		client:  &http.Client{Timeout: 12 * time.Second},
		baseURL: DefaultNominatimURL,
		limit:   3,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *NominatimProvider) Name() string {
	if p.strict {
		return "nominatim_strict"
	}
	return "nominatim"
}

// Available implements Provider.
func (p *NominatimProvider) Available() bool { return true }

// Geocode implements Provider.
func (p *NominatimProvider) Geocode(ctx context.Context, address string) ([]Candidate, error) {
	params := url.Values{
		"q":              {address},
		"format":         {"jsonv2"},
		"limit":          {strconv.Itoa(p.limit)},
		"countrycodes":   {"us"},
		"addressdetails": {"1"},
	}
	if p.strict {
		// viewbox is x1,y1,x2,y2 (lng,lat of opposite corners).
		params.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f",
			p.region.MinLng, p.region.MaxLat, p.region.MaxLng, p.region.MinLat))
		params.Set("bounded", "1")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: build request", p.Name())
	}
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: request", p.Name())
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("%s: status %d", p.Name(), resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: read body", p.Name())
	}

	var items []nominatimItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, eris.Wrapf(err, "%s: parse response", p.Name())
	}

	candidates := make([]Candidate, 0, len(items))
	for _, item := range items {
		lat, latErr := strconv.ParseFloat(item.Lat, 64)
		lng, lngErr := strconv.ParseFloat(item.Lon, 64)
		if latErr != nil || lngErr != nil {
			continue
		}
		candidates = append(candidates, Candidate{
			Lat:         lat,
			Lng:         lng,
			Type:        item.Type,
			Class:       item.Class,
			Importance:  item.Importance,
			HouseNumber: item.Address.HouseNumber,
			State:       item.Address.State,
			Provider:    p.Name(),
		})
	}
	return candidates, nil
}
