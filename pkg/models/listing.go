// Package models defines the listing records shared by the Pathways API,
// repositories, and the listing engine.
package models

import "time"

// Kind identifies which directory a listing belongs to.
type Kind string

const (
	KindGrant       Kind = "grant"
	KindScholarship Kind = "scholarship"
	KindResource    Kind = "resource"
)

// Valid reports whether k is a known listing kind.
func (k Kind) Valid() bool {
	switch k {
	case KindGrant, KindScholarship, KindResource:
		return true
	}
	return false
}

// Grant categories.
const (
	CategoryArts          = "arts"
	CategoryBusiness      = "business"
	CategoryCommunity     = "community"
	CategoryEducation     = "education"
	CategoryEnvironment   = "environment"
	CategoryHealth        = "health"
	CategoryHousing       = "housing"
	CategoryLanguage      = "language"
	CategoryYouth         = "youth"
	CategoryUndergraduate = "undergraduate"
	CategoryGraduate      = "graduate"
	CategoryVocational    = "vocational"
	CategoryLegal         = "legal"
	CategoryCultural      = "cultural"
)

// categoriesByKind lists the recognized categories for each kind. Unknown
// categories coming in from a query string are treated as "no filter".
var categoriesByKind = map[Kind][]string{
	KindGrant: {
		CategoryArts, CategoryBusiness, CategoryCommunity, CategoryEducation,
		CategoryEnvironment, CategoryHealth, CategoryHousing, CategoryLanguage,
		CategoryYouth,
	},
	KindScholarship: {
		CategoryUndergraduate, CategoryGraduate, CategoryVocational,
		CategoryArts, CategoryHealth, CategoryLanguage,
	},
	KindResource: {
		CategoryCommunity, CategoryCultural, CategoryEducation, CategoryHealth,
		CategoryHousing, CategoryLegal, CategoryYouth,
	},
}

// ValidCategory reports whether category is recognized for the given kind.
func ValidCategory(kind Kind, category string) bool {
	for _, c := range categoriesByKind[kind] {
		if c == category {
			return true
		}
	}
	return false
}

// Listing is a single directory entry: a grant, scholarship, or resource.
// The three kinds share one shape; they differ only in which categories apply
// and in how their listing pages sort by default.
//
// Amount is free-text display copy ("up to $5,000", "varies"). AmountMin and
// AmountMax are the structured range parsed from it at write time; both are
// nil when no numeric range could be extracted, and only the structured
// fields participate in range filtering.
type Listing struct {
	ID           string     `json:"id"`
	Kind         Kind       `json:"kind"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Organization string     `json:"organization"`
	URL          string     `json:"url"`
	ContactEmail string     `json:"contact_email,omitempty"`
	Category     string     `json:"category"`
	Tags         []string   `json:"tags"`
	Amount       string     `json:"amount,omitempty"`
	AmountMin    *float64   `json:"amount_min,omitempty"`
	AmountMax    *float64   `json:"amount_max,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Eligibility  string     `json:"eligibility,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"-"`
}

// HasDeadline reports whether the listing has a concrete deadline, as opposed
// to rolling/ongoing availability.
func (l *Listing) HasDeadline() bool {
	return l.Deadline != nil
}
