package pipeline

import (
	"strings"

	"github.com/big-sky-labs/parcel-cli/pkg/geocoder"
)

// recognizedCounties are the county names scanned for directly in addresses.
var recognizedCounties = []string{
	"Yellowstone",
	"Missoula",
	"Cascade",
	"Gallatin",
	"Flathead",
	"Lewis and Clark",
	"Silver Bow",
	"Ravalli",
	"Lake",
	"Lincoln",
	"Hill",
	"Park",
	"Big Horn",
	"Custer",
	"Richland",
	"Dawson",
	"Fergus",
}

// cityToCounty maps Montana localities to their county.
var cityToCounty = map[string]string{
	"BILLINGS":    "Yellowstone",
	"LAUREL":      "Yellowstone",
	"MISSOULA":    "Missoula",
	"GREAT FALLS": "Cascade",
	"BOZEMAN":     "Gallatin",
	"BELGRADE":    "Gallatin",
	"KALISPELL":   "Flathead",
	"WHITEFISH":   "Flathead",
	"HELENA":      "Lewis and Clark",
	"BUTTE":       "Silver Bow",
	"HAMILTON":    "Ravalli",
	"POLSON":      "Lake",
	"HAVRE":       "Hill",
	"LIVINGSTON":  "Park",
	"MILES CITY":  "Custer",
	"SIDNEY":      "Richland",
	"GLENDIVE":    "Dawson",
	"LEWISTOWN":   "Fergus",
}

// DeriveCounty best-effort maps an address to a county name: an explicit
// "<name> County" mention wins, then the city token through the city table.
// An empty result is not an error.
func DeriveCounty(address string) string {
	upper := strings.ToUpper(address)
	for _, county := range recognizedCounties {
		if strings.Contains(upper, strings.ToUpper(county)+" COUNTY") {
			return county
		}
	}

	if city := geocoder.ExtractCity(address); city != "" {
		if county, ok := cityToCounty[city]; ok {
			return county
		}
	}
	return ""
}
