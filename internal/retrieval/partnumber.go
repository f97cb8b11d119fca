package retrieval

import (
	"regexp"
	"strings"
)

// Part numbers look like W10295370A: a run of letters, at least four
// digits, optional trailing letters. The leading letters are mandatory so
// bare quantities and prices never match.
var partNumberPattern = regexp.MustCompile(`[A-Z]+[0-9]{4,}[A-Z]*`)

// ExtractPartNumbers returns every part-number-like token in the text, in
// order of appearance. The input is uppercased before matching.
func ExtractPartNumbers(text string) []string {
	return partNumberPattern.FindAllString(strings.ToUpper(text), -1)
}

// CanonicalPartQuery is the query projection used whenever a part number is
// known. It mirrors the PART_NUMBER prefix of the stored document text, so
// the query embedding lands next to the exact catalog entry.
func CanonicalPartQuery(token string) string {
	return "PART_NUMBER: " + strings.ToUpper(strings.TrimSpace(token))
}
