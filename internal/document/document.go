// Package document defines the search index record and the filename based
// document type classification.
package document

import "strings"

// Type is the coarse semantic category of an exported page.
type Type string

const (
	TypeClass     Type = "Class"
	TypeAttribute Type = "Attribute"
	TypeDiagram   Type = "Diagram"
	TypeUnknown   Type = "Unknown"
)

// classification rules in precedence order; a filename may contain several
// of the substrings and only the first match counts.
var classification = []struct {
	substr string
	typ    Type
}{
	{"class", TypeClass},
	{"attribute", TypeAttribute},
	{"diagram", TypeDiagram},
}

// Classify maps a filename to a Type using a case-insensitive substring match.
func Classify(filename string) Type {
	lower := strings.ToLower(filename)
	for _, rule := range classification {
		if strings.Contains(lower, rule.substr) {
			return rule.typ
		}
	}
	return TypeUnknown
}

// Record is one indexed page. The JSON field names are read by search.js.
type Record struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
	Type    Type   `json:"type"`
}
