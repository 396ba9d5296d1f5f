package model

import "strconv"

// Columns is the fixed column layout of the persisted store.
// The table viewer reads exactly these names in this order.
var Columns = []string{
	"name",
	"website",
	"description",
	"yc_link",
	"linkedin_url",
	"linkedin_description",
	"yc_s25_on_linkedin",
	"batch",
}

// Candidate is a listing entry parsed from the rendered directory page
type Candidate struct {
	Identifier  string // card href, unique within a run
	Name        string
	Description string // optional
	Batch       string // matched cohort label
	DetailURL   string // base URL + identifier
	Slug        string // last path segment of DetailURL
}

// Company is a candidate enriched with website and profile data.
// Empty strings stand for unresolved optional fields.
type Company struct {
	Candidate

	Website            string
	ProfileURL         string
	ProfileDescription string
	MarkerPresent      bool
}

// Row renders the company in Columns order
func (c Company) Row() []string {
	return []string{
		c.Name,
		c.Website,
		c.Description,
		c.DetailURL,
		c.ProfileURL,
		c.ProfileDescription,
		formatBool(c.MarkerPresent),
		c.Batch,
	}
}

// formatBool writes booleans the way pandas reads them back
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// ParseBool is the inverse of the store's boolean encoding
func ParseBool(s string) bool {
	switch s {
	case "True":
		return true
	case "False", "":
		return false
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// Resolution is what a company's detail page yields
type Resolution struct {
	Website    string
	ProfileURL string
}

// Inspection is what a company's profile page yields
type Inspection struct {
	Description   string
	MarkerPresent bool
}
