package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ValueKind selects how a matched line's value token is interpreted.
type ValueKind string

const (
	// KindAmount takes the second-to-last whitespace token (the token before
	// the trailing unit/currency marker), normalizes the decimal comma and
	// parses it as a float.
	KindAmount ValueKind = "amount"
	// KindDate takes the last whitespace token verbatim.
	KindDate ValueKind = "date"
)

// Rule is one entry of the label table. A line matches when it contains
// Contains (and AlsoContains, when set). Rules are evaluated in slice order
// and the first match wins, so specific labels must precede generic ones.
type Rule struct {
	Contains     string    `json:"contains"`
	AlsoContains string    `json:"alsoContains,omitempty"`
	Canonical    string    `json:"canonical"`
	Kind         ValueKind `json:"kind"`
}

func (r Rule) matches(line string) bool {
	if !strings.Contains(line, r.Contains) {
		return false
	}
	return r.AlsoContains == "" || strings.Contains(line, r.AlsoContains)
}

// DefaultRules is the built-in Romanian telecom/energy label table. The
// VAT+percent rule is ordered ahead of every label that merely contains
// "TVA".
func DefaultRules() []Rule {
	return []Rule{
		{Contains: "TVA", AlsoContains: "%", Canonical: "TVA", Kind: KindAmount},
		{Contains: "Data facturii", Canonical: "Data factura", Kind: KindDate},
		{Contains: "Data emiterii facturii", Canonical: "Data emiterii facturii", Kind: KindDate},
		{Contains: "Total platit din sold precedent", Canonical: "Total platit din sold precedent", Kind: KindAmount},
		{Contains: "Sold precedent", Canonical: "Sold precedent", Kind: KindAmount},
		{Contains: "Abonamente si extraop", Canonical: "Abonamente si extraoptiuni", Kind: KindAmount},
		{Contains: "Total factura curenta fara TVA", Canonical: "Total factura curenta fara TVA", Kind: KindAmount},
		{Contains: "Servicii utilizate", Canonical: "Servicii utilizate", Kind: KindAmount},
		{Contains: "Rate terminal", Canonical: "Rate terminal", Kind: KindAmount},
		{Contains: "Valoare facturată fără TVA", Canonical: "Valoare facturata", Kind: KindAmount},
		{Contains: "Total bază de impozitare TVA", Canonical: "Total baza de impozitare TVA", Kind: KindAmount},
		{Contains: "Dobânzi penalizatoare", Canonical: "Dobanzi penalizatoare", Kind: KindAmount},
		{Contains: "TOTAL DE PLATĂ FACTURĂ CURENTĂ", Canonical: "Total de plata factura curenta", Kind: KindAmount},
		{Contains: "TOTAL DE PLATĂ CONT CONTRACT", Canonical: "Total de plata cont contract", Kind: KindAmount},
		{Contains: "Sold Cont Contract", Canonical: "Sold Cont Contract", Kind: KindAmount},
		{Contains: "Compensatii", Canonical: "Compensatii", Kind: KindAmount},
		{Contains: "Consum Energie Activ", Canonical: "Consum Energie Activa", Kind: KindAmount},
		{Contains: "Total factura curenta", Canonical: "Total factura curenta", Kind: KindAmount},
	}
}

// rulesSchema constrains external rule tables: a non-empty array of rules
// with a known kind and non-empty match/canonical strings.
var rulesSchema = map[string]any{
	"type":     "array",
	"minItems": 1,
	"items": map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"contains":     map[string]any{"type": "string", "minLength": 1},
			"alsoContains": map[string]any{"type": "string"},
			"canonical":    map[string]any{"type": "string", "minLength": 1},
			"kind":         map[string]any{"type": "string", "enum": []string{"amount", "date"}},
		},
		"required": []string{"contains", "canonical", "kind"},
	},
}

// LoadRules reads a rule table from a JSON file so billing vocabularies can
// be extended without code changes.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	if err := ValidateJSONAgainstSchema(rulesSchema, data); err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return rules, nil
}
