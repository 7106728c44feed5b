package analytics

import "timesheet/internal/core"

type (
	// Analytics is the aggregated view of a query.
	Analytics struct {
		TotalDuration     int               `json:"totalDuration"`
		CategorySummaries []CategorySummary `json:"categorySummaries"`
		StartDate         string            `json:"startDate"`
		EndDate           string            `json:"endDate"`
	}

	// CategorySummary totals one main category. Percentage is its share
	// of the grand total.
	CategorySummary struct {
		MainCategory  *core.MainCategory   `json:"mainCategory"`
		SubCategories []SubCategorySummary `json:"subCategories"`
		TotalDuration int                  `json:"totalDuration"`
		Percentage    float64              `json:"percentage"`
	}

	// SubCategorySummary totals one sub-category. Percentage is its share
	// of the parent main category's total, not of the grand total.
	SubCategorySummary struct {
		SubCategory *core.SubCategory `json:"subCategory"`
		Duration    int               `json:"duration"`
		Percentage  float64           `json:"percentage"`
		Entries     []core.TimeEntry  `json:"entries"`
	}
)

// Aggregate filters entries by range and user and groups them by main
// category and sub-category.
//
// An empty userFilter selects every user. Entries whose main or sub-category
// id is missing from the supplied tables are skipped and do not count toward
// any total. Summaries keep the order in which their category was first seen.
// The returned summaries point into mains and subs.
func Aggregate(entries []core.TimeEntry, userFilter string, rng core.DateRange, mains []core.MainCategory, subs []core.SubCategory) Analytics {
	mainByID := make(map[string]*core.MainCategory, len(mains))
	for i := range mains {
		mainByID[mains[i].ID] = &mains[i]
	}
	subByID := make(map[string]*core.SubCategory, len(subs))
	for i := range subs {
		subByID[subs[i].ID] = &subs[i]
	}

	out := Analytics{
		CategorySummaries: make([]CategorySummary, 0),
		StartDate:         rng.Start,
		EndDate:           rng.End,
	}
	mainIdx := make(map[string]int)
	subIdx := make(map[string]map[string]int)

	for _, e := range entries {
		if !rng.Contains(e.Date) {
			continue
		}
		if userFilter != "" && e.UserID != userFilter {
			continue
		}
		mc, ok := mainByID[e.MainCategoryID]
		if !ok {
			continue
		}
		sc, ok := subByID[e.SubCategoryID]
		if !ok {
			continue
		}

		mi, seen := mainIdx[mc.ID]
		if !seen {
			mi = len(out.CategorySummaries)
			mainIdx[mc.ID] = mi
			subIdx[mc.ID] = make(map[string]int)
			out.CategorySummaries = append(out.CategorySummaries, CategorySummary{
				MainCategory:  mc,
				SubCategories: make([]SubCategorySummary, 0),
			})
		}
		summary := &out.CategorySummaries[mi]

		si, seen := subIdx[mc.ID][sc.ID]
		if !seen {
			si = len(summary.SubCategories)
			subIdx[mc.ID][sc.ID] = si
			summary.SubCategories = append(summary.SubCategories, SubCategorySummary{SubCategory: sc})
		}
		sub := &summary.SubCategories[si]

		out.TotalDuration += e.Duration
		summary.TotalDuration += e.Duration
		sub.Duration += e.Duration
		sub.Entries = append(sub.Entries, e)
	}

	for i := range out.CategorySummaries {
		s := &out.CategorySummaries[i]
		s.Percentage = percent(s.TotalDuration, out.TotalDuration)
		for j := range s.SubCategories {
			s.SubCategories[j].Percentage = percent(s.SubCategories[j].Duration, s.TotalDuration)
		}
	}
	return out
}

// AggregateTaxonomy is Aggregate over a Taxonomy value.
func AggregateTaxonomy(entries []core.TimeEntry, userFilter string, rng core.DateRange, tax core.Taxonomy) Analytics {
	return Aggregate(entries, userFilter, rng, tax.Mains, tax.Subs)
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
