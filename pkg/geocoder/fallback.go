package geocoder

import (
	"regexp"
	"strings"

	"github.com/big-sky-labs/parcel-cli/internal/model"
)

// montanaCentroid is the unconditional last-resort coordinate.
var montanaCentroid = model.Coordinate{Lat: 46.8797, Lng: -110.3626}

// cityCentroids maps Montana locality names to approximate centroids.
var cityCentroids = map[string]model.Coordinate{
	"BILLINGS":    {Lat: 45.7833, Lng: -108.5007},
	"MISSOULA":    {Lat: 46.8721, Lng: -113.9940},
	"GREAT FALLS": {Lat: 47.4941, Lng: -111.2833},
	"BOZEMAN":     {Lat: 45.6770, Lng: -111.0429},
	"BUTTE":       {Lat: 46.0038, Lng: -112.5348},
	"HELENA":      {Lat: 46.5891, Lng: -112.0391},
	"KALISPELL":   {Lat: 48.1920, Lng: -114.3168},
	"HAVRE":       {Lat: 48.5500, Lng: -109.6841},
	"LIVINGSTON":  {Lat: 45.6624, Lng: -110.5607},
	"MILES CITY":  {Lat: 46.4083, Lng: -105.8406},
	"LAUREL":      {Lat: 45.6691, Lng: -108.7715},
	"BELGRADE":    {Lat: 45.7760, Lng: -111.1769},
	"WHITEFISH":   {Lat: 48.4111, Lng: -114.3376},
	"HAMILTON":    {Lat: 46.2466, Lng: -114.1601},
	"SIDNEY":      {Lat: 47.7167, Lng: -104.1563},
	"GLENDIVE":    {Lat: 47.1053, Lng: -104.7124},
	"LEWISTOWN":   {Lat: 47.0625, Lng: -109.4282},
	"POLSON":      {Lat: 47.6936, Lng: -114.1630},
}

// stateSuffixRe captures the text preceding the ", MT <zip>" tail.
var stateSuffixRe = regexp.MustCompile(`(?i)^(.*?),\s*MT\b`)

// ExtractCity pulls the locality name out of a normalized address. The
// cadastral sources rarely separate street and city with a comma, so the
// longest trailing word run matching a known city wins; otherwise the last
// word before the state is the best guess.
func ExtractCity(address string) string {
	m := stateSuffixRe.FindStringSubmatch(strings.TrimSpace(address))
	if m == nil {
		return ""
	}

	head := strings.TrimSpace(m[1])
	if i := strings.LastIndex(head, ","); i >= 0 {
		head = strings.TrimSpace(head[i+1:])
	}

	words := strings.Fields(strings.ToUpper(head))
	if len(words) == 0 {
		return ""
	}

	for n := 3; n >= 1; n-- {
		if len(words) < n {
			continue
		}
		candidate := strings.Join(words[len(words)-n:], " ")
		if _, ok := cityCentroids[candidate]; ok {
			return candidate
		}
	}
	return words[len(words)-1]
}

// FallbackCentroid returns a city centroid for the address's locality, or the
// state centroid when the city is unknown. Trades precision for availability;
// the pipeline always produces some coordinate.
func FallbackCentroid(address string) *Location {
	if city := ExtractCity(address); city != "" {
		if coord, ok := cityCentroids[city]; ok {
			return &Location{Coordinate: coord, Source: "city_centroid", Precise: false}
		}
	}
	return &Location{Coordinate: montanaCentroid, Source: "state_centroid", Precise: false}
}
