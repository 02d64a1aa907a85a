package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Intent labels the extractor is instructed to choose from. Labels outside
// this set are passed through untouched.
const (
	IntentProductSearch = "product_search"
	IntentOrderInquiry  = "order_inquiry"
	IntentGeneralHelp   = "general_help"
	IntentComplaint     = "complaint"
	IntentReturnRequest = "return_request"
)

// KnownIntents lists the fixed vocabulary in prompt order.
var KnownIntents = []string{
	IntentProductSearch,
	IntentOrderInquiry,
	IntentGeneralHelp,
	IntentComplaint,
	IntentReturnRequest,
}

// IntentResult is the structured classification of one user message. It is
// produced per turn and never persisted as its own record.
type IntentResult struct {
	Intent      string   `json:"intent"`
	Entities    Entities `json:"entities"`
	MissingInfo []string `json:"missing_info"`
	Confidence  float64  `json:"confidence"`
}

// PriceRange is an inclusive retail price interval. A nil bound is open.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// UnmarshalJSON accepts numbers, numeric strings, and null for either bound.
func (p *PriceRange) UnmarshalJSON(b []byte) error {
	var raw struct {
		Min json.RawMessage `json:"min"`
		Max json.RawMessage `json:"max"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Min = looseFloat(raw.Min)
	p.Max = looseFloat(raw.Max)
	return nil
}

func (p *PriceRange) empty() bool {
	return p == nil || (p.Min == nil && p.Max == nil)
}

// LooseString decodes a JSON string or number into a string; null and other
// JSON types decode to "". Models are inconsistent about quoting identifiers.
type LooseString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *LooseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = LooseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		*s = ""
		return nil
	}
	*s = LooseString(n.String())
	return nil
}

// Entities are the structured fields extracted from free text. Every field
// is optional; empty values are omitted from JSON.
type Entities struct {
	Category   string      `json:"category,omitempty"`
	Brand      string      `json:"brand,omitempty"`
	Department string      `json:"department,omitempty"`
	Name       string      `json:"name,omitempty"`
	PriceRange *PriceRange `json:"price_range,omitempty"`
	OrderID    LooseString `json:"order_id,omitempty"`
	UserID     LooseString `json:"user_id,omitempty"`
}

// Fields returns the JSON names of the populated entity fields in a fixed
// order.
func (e Entities) Fields() []string {
	out := make([]string, 0, 7)
	if e.Category != "" {
		out = append(out, "category")
	}
	if e.Brand != "" {
		out = append(out, "brand")
	}
	if e.Department != "" {
		out = append(out, "department")
	}
	if e.Name != "" {
		out = append(out, "name")
	}
	if !e.PriceRange.empty() {
		out = append(out, "price_range")
	}
	if e.OrderID != "" {
		out = append(out, "order_id")
	}
	if e.UserID != "" {
		out = append(out, "user_id")
	}
	return out
}

// Normalize trims values and clears the ones a model emits when it has
// nothing to say ("", "null", "none", or echoed template placeholders such
// as "brand_if_mentioned").
func (e Entities) Normalize() Entities {
	e.Category = cleanEntity(e.Category)
	e.Brand = cleanEntity(e.Brand)
	e.Department = cleanEntity(e.Department)
	e.Name = cleanEntity(e.Name)
	e.OrderID = LooseString(cleanEntity(string(e.OrderID)))
	e.UserID = LooseString(cleanEntity(string(e.UserID)))
	if e.PriceRange.empty() {
		e.PriceRange = nil
	}
	return e
}

func cleanEntity(v string) string {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "", "null", "none", "n/a", "unknown":
		return ""
	}
	if strings.HasSuffix(strings.ToLower(v), "_if_mentioned") {
		return ""
	}
	return v
}

func looseFloat(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimPrefix(strings.TrimSpace(s), "$")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}
	return nil
}

// ContextBundle is the structured data retrieved for one turn. At most one
// of Products and Orders is set; a nil bundle means no retrieval happened.
type ContextBundle struct {
	Products []Product `json:"products,omitempty"`
	Orders   []Order   `json:"orders,omitempty"`
}
