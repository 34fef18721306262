package dashboard

import "strings"

// Tab is one analysis tab of the dashboard.
type Tab string

const (
	TabSummary      Tab = "summary"
	TabRegions      Tab = "regions"
	TabCountries    Tab = "countries"
	TabCorrelations Tab = "correlations"
)

// Tabs lists the tabs in display order.
var Tabs = []Tab{TabSummary, TabRegions, TabCountries, TabCorrelations}

// ParseTab returns the tab named by s, or the summary tab.
func ParseTab(s string) Tab {
	t := Tab(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tabs {
		if t == known {
			return t
		}
	}
	return TabSummary
}

// Title returns the tab label.
func (t Tab) Title() string {
	switch t {
	case TabRegions:
		return "Regional Analysis"
	case TabCountries:
		return "Top & Bottom Countries"
	case TabCorrelations:
		return "Factor Correlations"
	default:
		return "Summary"
	}
}

// Next returns the tab after t, wrapping around.
func (t Tab) Next() Tab {
	for i, known := range Tabs {
		if known == t {
			return Tabs[(i+1)%len(Tabs)]
		}
	}
	return TabSummary
}

// Prev returns the tab before t, wrapping around.
func (t Tab) Prev() Tab {
	for i, known := range Tabs {
		if known == t {
			return Tabs[(i+len(Tabs)-1)%len(Tabs)]
		}
	}
	return TabSummary
}
