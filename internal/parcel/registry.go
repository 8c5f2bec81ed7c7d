package parcel

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/big-sky-labs/parcel-cli/internal/geometry"
	"github.com/big-sky-labs/parcel-cli/internal/model"
)

// DefaultRegistryURL is the Montana MSDI Parcels ArcGIS REST query endpoint.
const DefaultRegistryURL = "https://gisservicemt.gov/arcgis/rest/services/MSDI_Framework/Parcels/MapServer/0/query"

const registryOutFields = "PARCELID,AddressLine1,AddressLine2,CityStateZip,CountyName,OwnerName"

// registryResponse is the ArcGIS feature query JSON response.
type registryResponse struct {
	Features []struct {
		Attributes map[string]any `json:"attributes"`
		Geometry   *struct {
			Rings [][][]float64 `json:"rings"`
		} `json:"geometry"`
	} `json:"features"`
	SpatialReference *struct {
		WKID       int `json:"wkid"`
		LatestWKID int `json:"latestWkid"`
	} `json:"spatialReference"`
}

// RegistryStrategy queries the authoritative parcel registry, probing each
// geocode variant until one returns a usable address.
type RegistryStrategy struct {
	client  *http.Client
	baseURL string
}

// RegistryOption configures the RegistryStrategy.
type RegistryOption func(*RegistryStrategy)

// WithRegistryHTTPClient sets a custom HTTP client.
func WithRegistryHTTPClient(hc *http.Client) RegistryOption {
	return func(s *RegistryStrategy) { s.client = hc }
}

// WithRegistryURL overrides the query endpoint.
func WithRegistryURL(u string) RegistryOption {
	return func(s *RegistryStrategy) { s.baseURL = u }
}

// NewRegistryStrategy creates a RegistryStrategy with a 30-second timeout.
func NewRegistryStrategy(opts ...RegistryOption) *RegistryStrategy {
	s := &RegistryStrategy{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: DefaultRegistryURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Strategy.
func (s *RegistryStrategy) Name() string { return "registry" }

// Resolve implements Strategy. Non-2xx responses and empty feature lists are
// soft failures: the next variant is tried, and chain exhaustion is reported
// as an error so the Resolver advances to the next strategy.
func (s *RegistryStrategy) Resolve(ctx context.Context, geocode string) (*model.LookupResult, error) {
	for _, variant := range Variants(geocode) {
		result, err := s.queryVariant(ctx, geocode, variant)
		if err != nil {
			zap.L().Debug("registry: variant failed",
				zap.String("variant", variant),
				zap.Error(err),
			)
			continue
		}
		if result != nil {
			return result, nil
		}
	}
	return nil, eris.Errorf("registry: no data found for geocode %s", geocode)
}

// queryVariant issues one field-filtered registry query. A nil result with a
// nil error means the variant returned no usable match.
func (s *RegistryStrategy) queryVariant(ctx context.Context, geocode, variant string) (*model.LookupResult, error) {
	params := url.Values{
		"where":          {"PARCELID='" + variant + "'"},
		"outFields":      {registryOutFields},
		"returnGeometry": {"true"},
		"outSR":          {"4326"},
		"f":              {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "registry: build request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "registry: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("registry: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read body")
	}

	var parsed registryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "registry: parse response")
	}

	if len(parsed.Features) == 0 {
		return nil, nil
	}

	feature := parsed.Features[0]
	address := joinAddressParts(
		attrString(feature.Attributes, "AddressLine1"),
		attrString(feature.Attributes, "AddressLine2"),
		attrString(feature.Attributes, "CityStateZip"),
	)
	if !LooksLikeFullAddress(address) {
		return nil, nil
	}

	result := &model.LookupResult{
		Success: true,
		Address: address,
		Geocode: geocode,
	}

	if feature.Geometry != nil && len(feature.Geometry.Rings) > 0 {
		// Geometry is assumed lng/lat unless the response tags Web Mercator.
		mercator := false
		if sr := parsed.SpatialReference; sr != nil {
			mercator = sr.WKID == 3857 || sr.WKID == 102100 || sr.LatestWKID == 3857
		}
		poly, geomErr := geometry.RingsToPolygon(feature.Geometry.Rings, mercator)
		if geomErr != nil {
			zap.L().Debug("registry: discarding malformed parcel geometry",
				zap.String("variant", variant),
				zap.Error(geomErr),
			)
		} else {
			result.ParcelGeometry = geometry.ToModel(poly)
		}
	}

	return result, nil
}

// attrString reads a string attribute, tolerating missing or non-string values.
func attrString(attrs map[string]any, key string) string {
	if v, ok := attrs[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// joinAddressParts concatenates non-empty address components with spaces.
func joinAddressParts(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
