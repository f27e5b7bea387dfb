package model

import "strings"

// Address is an optional postal address used to disambiguate similarly
// named companies. Every field may be empty.
type Address struct {
	Street  string `json:"street,omitempty" yaml:"street,omitempty"`
	City    string `json:"city,omitempty" yaml:"city,omitempty"`
	State   string `json:"state,omitempty" yaml:"state,omitempty"`
	Zip     string `json:"zip,omitempty" yaml:"zip,omitempty"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
}

// IsZero reports whether no address field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Short renders the address as "City, State Zip" for prompts. Missing parts
// are dropped without leaving dangling separators.
func (a Address) Short() string {
	tail := strings.TrimSpace(a.State + " " + a.Zip)
	switch {
	case a.City != "" && tail != "":
		return a.City + ", " + tail
	case a.City != "":
		return a.City
	default:
		return tail
	}
}

// CompanyRequest is the input to a single enrichment.
type CompanyRequest struct {
	Name    string  `json:"company_name"`
	Address Address `json:"address"`
}
