package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Product represents a loan product in the catalog. The catalog is owned by
// the database; the API only reads it. Nullable columns map to pointers.
type Product struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Bank            *string   `db:"bank" json:"bank"`
	Type            *string   `db:"type" json:"type"`
	RateAPR         *float64  `db:"rate_apr" json:"rate_apr"`
	MinIncome       *float64  `db:"min_income" json:"min_income"`
	MinCreditScore  *int      `db:"min_credit_score" json:"min_credit_score"`
	TenureMinMonths *int      `db:"tenure_min_months" json:"tenure_min_months"`
	TenureMaxMonths *int      `db:"tenure_max_months" json:"tenure_max_months"`
	Summary         *string   `db:"summary" json:"summary"`
	FAQ             FAQ       `db:"faq" json:"faq"`
	Description     *string   `db:"description" json:"description,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"-"`
	UpdatedAt       time.Time `db:"updated_at" json:"-"`
}

// Validate checks the catalog invariants: numeric fields are non-negative
// when present and the tenure range is ordered.
func (p *Product) Validate() error {
	if p.ID == "" {
		return errors.New("product id is required")
	}
	if p.Name == "" {
		return errors.New("product name is required")
	}
	if p.RateAPR != nil && *p.RateAPR < 0 {
		return errors.New("rate_apr must be non-negative")
	}
	if p.MinIncome != nil && *p.MinIncome < 0 {
		return errors.New("min_income must be non-negative")
	}
	for name, v := range map[string]*int{
		"min_credit_score":  p.MinCreditScore,
		"tenure_min_months": p.TenureMinMonths,
		"tenure_max_months": p.TenureMaxMonths,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative", name)
		}
	}
	if p.TenureMinMonths != nil && p.TenureMaxMonths != nil && *p.TenureMinMonths > *p.TenureMaxMonths {
		return errors.New("tenure_min_months must not exceed tenure_max_months")
	}
	return nil
}

// FAQItem is a single question/answer pair.
type FAQItem struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// FAQ is the polymorphic faq column: the stored JSON may be a plain string,
// a single {q,a} object, an array of {q,a} objects, or null.
type FAQ struct {
	raw json.RawMessage
}

// NewFAQ builds an FAQ from raw JSON. Intended for tests and seeds.
func NewFAQ(raw []byte) FAQ {
	return FAQ{raw: append([]byte(nil), raw...)}
}

// Items normalizes the stored value into an ordered list of Q/A pairs.
// A plain-text FAQ becomes a single item with an empty question. Malformed
// JSON yields an empty list rather than an error.
func (f FAQ) Items() []FAQItem {
	if f.IsZero() {
		return nil
	}

	var items []FAQItem
	if err := json.Unmarshal(f.raw, &items); err == nil {
		return items
	}

	var item FAQItem
	if err := json.Unmarshal(f.raw, &item); err == nil && (item.Q != "" || item.A != "") {
		return []FAQItem{item}
	}

	var text string
	if err := json.Unmarshal(f.raw, &text); err == nil && text != "" {
		return []FAQItem{{A: text}}
	}

	return nil
}

// IsZero reports whether the FAQ holds no value (SQL NULL or JSON null).
func (f FAQ) IsZero() bool {
	return len(f.raw) == 0 || string(f.raw) == "null"
}

// MarshalJSON passes the stored JSON through unchanged.
func (f FAQ) MarshalJSON() ([]byte, error) {
	if len(f.raw) == 0 {
		return []byte("null"), nil
	}
	return f.raw, nil
}

// UnmarshalJSON keeps the raw JSON without interpreting its shape.
func (f *FAQ) UnmarshalJSON(data []byte) error {
	f.raw = append(f.raw[:0], data...)
	return nil
}

// Scan implements sql.Scanner for the jsonb faq column.
func (f *FAQ) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		f.raw = nil
		return nil
	case []byte:
		f.raw = append(f.raw[:0], v...)
		return nil
	case string:
		f.raw = []byte(v)
		return nil
	default:
		return fmt.Errorf("unsupported faq scan type %T", src)
	}
}

// Value implements driver.Valuer for the jsonb faq column.
func (f FAQ) Value() (driver.Value, error) {
	if f.IsZero() {
		return nil, nil
	}
	return []byte(f.raw), nil
}
