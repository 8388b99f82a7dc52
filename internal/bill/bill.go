// Package bill holds the bill domain model: records handed to the
// insertion engine by the extraction collaborator, prices that may be
// deferred arithmetic formulas, permissive day-first date parsing, and
// the items-vs-total validation check.
package bill

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
)

// LineItem is one purchased item on a bill.
type LineItem struct {
	Name  string `json:"name"`
	Price Price  `json:"price"`
}

// Record is one structured bill as produced by the extraction
// collaborator. It is immutable once handed to the engine.
type Record struct {
	Store    string
	Date     civil.Date
	Category string
	Items    []LineItem
	Total    float64
}

// UnmarshalJSON decodes the wire form of a bill:
//
//	{"store": "...", "date": "...", "category": "...",
//	 "items": [{"name": "...", "price": 1.19}], "total": 9.0}
//
// The date is a day-first-ambiguous or ISO string; the total may arrive
// as a number or as a numeric/formula string and is evaluated here.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		Store    string          `json:"store"`
		Date     string          `json:"date"`
		Category string          `json:"category"`
		Items    []LineItem      `json:"items"`
		Total    json.RawMessage `json:"total"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	date, err := ParseDate(raw.Date)
	if err != nil {
		return fmt.Errorf("bill date: %w", err)
	}

	var total Price
	if len(raw.Total) > 0 {
		if err := total.UnmarshalJSON(raw.Total); err != nil {
			return fmt.Errorf("bill total: %w", err)
		}
	}

	r.Store = raw.Store
	r.Date = date
	r.Category = raw.Category
	r.Items = raw.Items
	r.Total = total.Amount()
	return nil
}

// MarshalJSON emits the same wire form UnmarshalJSON accepts, with the
// date in ISO format.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Store    string     `json:"store"`
		Date     string     `json:"date"`
		Category string     `json:"category,omitempty"`
		Items    []LineItem `json:"items"`
		Total    float64    `json:"total"`
	}{r.Store, r.Date.String(), r.Category, r.Items, r.Total})
}

// Price is a decimal amount that may originate from a deferred
// arithmetic expression such as "=1.19+0.25" (deposit-inclusive prices).
// Formula prices keep their expression for the spreadsheet engine; the
// evaluated amount is available for validation and duplicate checks.
type Price struct {
	expr   string
	amount float64
}

// PriceOf builds a plain numeric price.
func PriceOf(amount float64) Price {
	return Price{amount: amount}
}

// ParsePrice builds a price from a string: a "="-prefixed arithmetic
// expression or a locale number (comma or dot decimal separator).
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=") {
		amount, err := Eval(s)
		if err != nil {
			return Price{}, err
		}
		return Price{expr: s, amount: amount}, nil
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return Price{}, fmt.Errorf("cannot convert %q to a number", s)
	}
	return Price{amount: amount}, nil
}

// IsFormula reports whether the price carries a deferred expression.
func (p Price) IsFormula() bool { return p.expr != "" }

// Formula returns the original "=..." expression, or "" for numeric prices.
func (p Price) Formula() string { return p.expr }

// Amount returns the evaluated numeric value.
func (p Price) Amount() float64 { return p.amount }

// UnmarshalJSON accepts a JSON number or a string holding a number or a
// "=..." formula.
func (p *Price) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*p = PriceOf(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("price must be a number or string, got %s", data)
	}
	parsed, err := ParsePrice(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalJSON emits formulas as strings and plain prices as numbers.
func (p Price) MarshalJSON() ([]byte, error) {
	if p.IsFormula() {
		return json.Marshal(p.expr)
	}
	return json.Marshal(p.amount)
}
