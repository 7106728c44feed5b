package core

import (
	"errors"
	"fmt"
)

type (
	// MainCategory is a top-level classification bucket.
	MainCategory struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		IsLeave bool   `json:"isLeave,omitempty"`
	}

	// SubCategory is nested under exactly one MainCategory.
	SubCategory struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		MainCategoryID string `json:"mainCategoryId"`
		IsLeave        bool   `json:"isLeave,omitempty"`
	}

	// Taxonomy bundles the two category tables.
	Taxonomy struct {
		Mains []MainCategory `json:"mainCategories"`
		Subs  []SubCategory  `json:"subCategories"`
	}
)

var (
	ErrUnknownMainCategory = errors.New("unknown main category")
	ErrUnknownSubCategory  = errors.New("unknown sub-category")
	ErrCategoryMismatch    = errors.New("sub-category does not belong to main category")
)

// DefaultTaxonomy returns the built-in reference categories.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Mains: []MainCategory{
			{ID: "1", Name: "Development"},
			{ID: "2", Name: "Meetings"},
			{ID: "3", Name: "Documentation"},
			{ID: "4", Name: "Research"},
			{ID: "5", Name: "Leave", IsLeave: true},
		},
		Subs: []SubCategory{
			{ID: "1", Name: "Frontend", MainCategoryID: "1"},
			{ID: "2", Name: "Backend", MainCategoryID: "1"},
			{ID: "3", Name: "DevOps", MainCategoryID: "1"},
			{ID: "4", Name: "Testing", MainCategoryID: "1"},
			{ID: "5", Name: "Client Meeting", MainCategoryID: "2"},
			{ID: "6", Name: "Team Meeting", MainCategoryID: "2"},
			{ID: "7", Name: "Sprint Planning", MainCategoryID: "2"},
			{ID: "8", Name: "Technical Specifications", MainCategoryID: "3"},
			{ID: "9", Name: "User Manuals", MainCategoryID: "3"},
			{ID: "10", Name: "API Documentation", MainCategoryID: "3"},
			{ID: "11", Name: "New Technologies", MainCategoryID: "4"},
			{ID: "12", Name: "Market Analysis", MainCategoryID: "4"},
			{ID: "13", Name: "Competitor Research", MainCategoryID: "4"},
			{ID: "14", Name: "Vacation", MainCategoryID: "5", IsLeave: true},
			{ID: "15", Name: "Sick Leave", MainCategoryID: "5", IsLeave: true},
			{ID: "16", Name: "Personal Leave", MainCategoryID: "5", IsLeave: true},
		},
	}
}

// Main looks up a main category by id.
func (t Taxonomy) Main(id string) (*MainCategory, bool) {
	for i := range t.Mains {
		if t.Mains[i].ID == id {
			return &t.Mains[i], true
		}
	}
	return nil, false
}

// Sub looks up a sub-category by id.
func (t Taxonomy) Sub(id string) (*SubCategory, bool) {
	for i := range t.Subs {
		if t.Subs[i].ID == id {
			return &t.Subs[i], true
		}
	}
	return nil, false
}

// SubsOf returns the sub-categories owned by mainID, in table order.
func (t Taxonomy) SubsOf(mainID string) []SubCategory {
	out := make([]SubCategory, 0)
	for _, s := range t.Subs {
		if s.MainCategoryID == mainID {
			out = append(out, s)
		}
	}
	return out
}

// CheckPair verifies that both ids exist and that sub belongs to main.
func (t Taxonomy) CheckPair(mainID, subID string) error {
	if _, ok := t.Main(mainID); !ok {
		return ErrUnknownMainCategory
	}
	sub, ok := t.Sub(subID)
	if !ok {
		return ErrUnknownSubCategory
	}
	if sub.MainCategoryID != mainID {
		return ErrCategoryMismatch
	}
	return nil
}

// Validate checks that every sub-category references an existing main category.
func (t Taxonomy) Validate() error {
	for _, s := range t.Subs {
		if _, ok := t.Main(s.MainCategoryID); !ok {
			return fmt.Errorf("sub-category %s (%s): %w", s.ID, s.Name, ErrUnknownMainCategory)
		}
	}
	return nil
}
