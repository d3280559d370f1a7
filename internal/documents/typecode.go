package documents

import "strings"

// DefaultTypeCode is used for any document type missing from the table
const DefaultTypeCode = "01"

// typeCodes maps lower-cased LHDN document type names to their two-digit codes
var typeCodes = map[string]string{
	"invoice":                 "01",
	"credit note":             "02",
	"debit note":              "03",
	"refund note":             "04",
	"self-billed invoice":     "11",
	"self-billed credit note": "12",
	"self-billed debit note":  "13",
	"self-billed refund note": "14",
}

// TypeCodeFor returns the two-digit type code for a document type name.
// Matching ignores case and surrounding whitespace; unknown names yield DefaultTypeCode.
func TypeCodeFor(typeName string) string {
	if code, ok := typeCodes[strings.ToLower(strings.TrimSpace(typeName))]; ok {
		return code
	}
	return DefaultTypeCode
}
