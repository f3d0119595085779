package model

import "github.com/shopspring/decimal"

// Product is a catalog product fixture and its persisted form
type Product struct {
	ID      string          `json:"id,omitempty"`
	SKU     string          `json:"sku"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Stock   int             `json:"stock"`
	SeedTag string          `json:"seed_tag,omitempty"`
}

// InStock returns true if at least one unit is available
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Validate checks the product is seedable
func (p *Product) Validate() error {
	if p.SKU == "" {
		return &ValidationError{Field: "sku", Message: "is required"}
	}
	if p.Name == "" {
		return &ValidationError{Field: "name", Message: "is required", Value: p.SKU}
	}
	if !p.Price.IsPositive() {
		return &ValidationError{Field: "price", Message: "must be positive", Value: p.SKU}
	}
	if p.Stock < 0 {
		return &ValidationError{Field: "stock", Message: "must not be negative", Value: p.SKU}
	}
	return nil
}

// Address is a shipping address fixture.
// Valid addresses are real, verifiable locations so downstream address
// verification passes without depending on network lookups.
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}
