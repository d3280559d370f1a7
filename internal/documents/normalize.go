package documents

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Field is a canonical record field name
type Field string

// Canonical fields resolved from upstream payloads
const (
	FieldUUID                   Field = "uuid"
	FieldSubmissionUID          Field = "submissionUid"
	FieldLongID                 Field = "longId"
	FieldInternalID             Field = "internalId"
	FieldTypeName               Field = "typeName"
	FieldTypeVersionName        Field = "typeVersionName"
	FieldIssuerTIN              Field = "issuerTin"
	FieldIssuerName             Field = "issuerName"
	FieldReceiverID             Field = "receiverId"
	FieldReceiverName           Field = "receiverName"
	FieldReceiverRegistrationNo Field = "receiverRegistrationNo"
	FieldReceiverAddress        Field = "receiverAddress"
	FieldTotalSales             Field = "totalSales"
	FieldTotalExcludingTax      Field = "totalExcludingTax"
	FieldTotalDiscount          Field = "totalDiscount"
	FieldTotalNetAmount         Field = "totalNetAmount"
	FieldTotalPayableAmount     Field = "totalPayableAmount"
	FieldDateTimeIssued         Field = "dateTimeIssued"
	FieldDateTimeReceived       Field = "dateTimeReceived"
	FieldDateTimeValidated      Field = "dateTimeValidated"
	FieldStatus                 Field = "status"
)

// Rule resolves one canonical field from an ordered list of gjson paths.
// The first path yielding a non-empty value wins.
type Rule struct {
	Field Field
	Paths []string
}

// DefaultRules is the alias table for the LHDN recent documents payload.
// Receiver fields carry several legacy aliases and are listed in priority order.
var DefaultRules = []Rule{
	{Field: FieldUUID, Paths: []string{"uuid", "UUID", "documentUuid"}},
	{Field: FieldSubmissionUID, Paths: []string{"submissionUid", "submissionUID", "submissionUuid"}},
	{Field: FieldLongID, Paths: []string{"longId", "longID"}},
	{Field: FieldInternalID, Paths: []string{"internalId", "internalID", "invoiceNo", "documentNumber"}},
	{Field: FieldTypeName, Paths: []string{"typeName", "documentType"}},
	{Field: FieldTypeVersionName, Paths: []string{"typeVersionName", "documentTypeVersion"}},
	{Field: FieldIssuerTIN, Paths: []string{"issuerTin", "issuerTIN", "supplierTin", "supplierTIN"}},
	{Field: FieldIssuerName, Paths: []string{"issuerName", "supplierName"}},
	{Field: FieldReceiverID, Paths: []string{"receiverId", "buyerTin", "buyerTIN", "receiverTin", "receiverTIN"}},
	{Field: FieldReceiverName, Paths: []string{"receiverName", "buyerName"}},
	{Field: FieldReceiverRegistrationNo, Paths: []string{
		"receiverRegistrationNo", "buyerRegistrationNo", "receiverBRN", "buyerBRN", "receiverIdValue",
	}},
	{Field: FieldReceiverAddress, Paths: []string{"receiverAddress", "buyerAddress"}},
	{Field: FieldTotalSales, Paths: []string{"totalSales", "total"}},
	{Field: FieldTotalExcludingTax, Paths: []string{"totalExcludingTax"}},
	{Field: FieldTotalDiscount, Paths: []string{"totalDiscount"}},
	{Field: FieldTotalNetAmount, Paths: []string{"totalNetAmount", "netAmount"}},
	{Field: FieldTotalPayableAmount, Paths: []string{"totalPayableAmount", "totalPayable"}},
	{Field: FieldDateTimeIssued, Paths: []string{"dateTimeIssued", "issueDate"}},
	{Field: FieldDateTimeReceived, Paths: []string{"dateTimeReceived", "receivedDate"}},
	{Field: FieldDateTimeValidated, Paths: []string{"dateTimeValidated", "validatedDate"}},
	{Field: FieldStatus, Paths: []string{"status", "documentStatus"}},
}

// ErrMissingUUID is returned when a payload has no resolvable document UUID
var ErrMissingUUID = errors.New("document payload has no uuid")

// Normalizer turns raw upstream payloads into canonical records
type Normalizer struct {
	rules []Rule
}

// NewNormalizer creates a normalizer for the given rule table.
// A nil or empty table uses DefaultRules.
func NewNormalizer(rules []Rule) *Normalizer {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Normalizer{rules: rules}
}

// Resolve evaluates every rule against the payload and returns the winning value per field.
// Fields without a non-empty value are absent from the result.
func (n *Normalizer) Resolve(raw []byte) map[Field]gjson.Result {
	resolved := make(map[Field]gjson.Result, len(n.rules))
	for _, rule := range n.rules {
		for _, path := range rule.Paths {
			v := gjson.GetBytes(raw, path)
			if isEmpty(v) {
				continue
			}
			resolved[rule.Field] = v
			break
		}
	}
	return resolved
}

// Normalize builds a Record from one raw upstream payload
func (n *Normalizer) Normalize(raw []byte) (*Record, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("document payload is not valid JSON")
	}

	fields := n.Resolve(raw)
	str := func(f Field) string {
		return strings.TrimSpace(fields[f].String())
	}

	rec := &Record{
		UUID:                   str(FieldUUID),
		SubmissionUID:          str(FieldSubmissionUID),
		LongID:                 str(FieldLongID),
		InternalID:             str(FieldInternalID),
		TypeName:               str(FieldTypeName),
		TypeVersionName:        str(FieldTypeVersionName),
		IssuerTIN:              str(FieldIssuerTIN),
		IssuerName:             str(FieldIssuerName),
		ReceiverID:             str(FieldReceiverID),
		ReceiverName:           str(FieldReceiverName),
		ReceiverRegistrationNo: str(FieldReceiverRegistrationNo),
		ReceiverAddress:        addressString(fields[FieldReceiverAddress]),
		TotalSales:             amount(fields[FieldTotalSales]),
		TotalExcludingTax:      amount(fields[FieldTotalExcludingTax]),
		TotalDiscount:          amount(fields[FieldTotalDiscount]),
		TotalNetAmount:         amount(fields[FieldTotalNetAmount]),
		TotalPayableAmount:     amount(fields[FieldTotalPayableAmount]),
		DateTimeIssued:         parseTimestamp(fields[FieldDateTimeIssued]),
		DateTimeReceived:       parseTimestamp(fields[FieldDateTimeReceived]),
		DateTimeValidated:      parseTimestamp(fields[FieldDateTimeValidated]),
		Status:                 ParseStatus(str(FieldStatus)),
		Raw:                    append([]byte(nil), raw...),
	}

	if rec.UUID == "" {
		return rec, ErrMissingUUID
	}
	return rec, nil
}

func isEmpty(v gjson.Result) bool {
	if !v.Exists() || v.Type == gjson.Null {
		return true
	}
	if v.IsObject() {
		return len(v.Map()) == 0
	}
	if v.IsArray() {
		return len(v.Array()) == 0
	}
	return strings.TrimSpace(v.String()) == ""
}

// amount parses a monetary value, defaulting to zero
func amount(v gjson.Result) decimal.Decimal {
	switch v.Type {
	case gjson.Number:
		if d, err := decimal.NewFromString(v.Raw); err == nil {
			return d
		}
		return decimal.NewFromFloat(v.Float())
	case gjson.String:
		s := strings.ReplaceAll(strings.TrimSpace(v.String()), ",", "")
		if d, err := decimal.NewFromString(s); err == nil {
			return d
		}
	}
	return decimal.Zero
}

// addressString flattens an address that may arrive as a plain string or as
// an object of address lines.
func addressString(v gjson.Result) string {
	if !v.IsObject() && !v.IsArray() {
		return strings.TrimSpace(v.String())
	}

	var parts []string
	v.ForEach(func(_, value gjson.Result) bool {
		if s := strings.TrimSpace(addressString(value)); s != "" {
			parts = append(parts, s)
		}
		return true
	})
	return strings.Join(parts, ", ")
}
