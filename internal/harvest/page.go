package harvest

import "regexp"

// Granule IDs embed the Record page marker: "Pg", the chamber letter, the
// page number, and an optional sub-page suffix (e.g. "PgS1234-5").
var pagePattern = regexp.MustCompile(`Pg[SH]\d+(?:-\d+)?`)

// PageFromGranuleID returns the first page marker in a granule ID, or ""
// when the ID carries none.
func PageFromGranuleID(granuleID string) string {
	return pagePattern.FindString(granuleID)
}
