package parcel

import "regexp"

// fullAddressRe matches the ", <2-letter-state> <zip>" suffix every trusted
// address must carry. The optional 4-digit suffix covers zip+4.
var fullAddressRe = regexp.MustCompile(`(?i),\s*[A-Z]{2}\s+\d{5}(?:-\d{4})?$`)

// LooksLikeFullAddress reports whether s is a plausibly complete postal
// address. This is the sole acceptance gate before a candidate address from
// any source is trusted; it rejects partial HTML fragments and malformed
// registry responses.
func LooksLikeFullAddress(s string) bool {
	if len(s) < 10 {
		return false
	}
	return fullAddressRe.MatchString(s)
}
