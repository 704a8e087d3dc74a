// Package events holds the static clinical event taxonomy: every
// selectable event name maps to exactly one category. The registry is
// total for known names; names read back from legacy free-text entries
// pass through with the unclassified category rather than being rejected.
package events

import (
	"sort"
	"strings"
)

// Category groups event names by the clinical system they concern.
type Category string

const (
	CategoryCirculatory   Category = "circulatory"
	CategoryRespiratory   Category = "respiratory"
	CategoryConsciousness Category = "consciousness-sedation"
	CategoryRenalFluid    Category = "renal-fluid"
	CategoryActivityRehab Category = "activity-rehab"
	CategoryNutritionGI   Category = "nutrition-gi"
	CategoryInfection     Category = "infection-inflammation"
	CategoryOther         Category = "other"
	CategoryUnclassified  Category = "unclassified"
)

// Categories lists the selectable categories in display order. The
// unclassified catch-all is deliberately absent: it is never offered,
// only produced.
var Categories = []Category{
	CategoryCirculatory,
	CategoryRespiratory,
	CategoryConsciousness,
	CategoryRenalFluid,
	CategoryActivityRehab,
	CategoryNutritionGI,
	CategoryInfection,
	CategoryOther,
}

var registry = map[string]Category{
	"admission":           CategoryOther,
	"reoperation":         CategoryOther,
	"ward-transfer":       CategoryOther,
	"extubation":          CategoryRespiratory,
	"re-intubation":       CategoryRespiratory,
	"tracheostomy":        CategoryRespiratory,
	"sbt-success":         CategoryRespiratory,
	"sbt-failure":         CategoryRespiratory,
	"vasopressor-up":      CategoryCirculatory,
	"vasopressor-down":    CategoryCirculatory,
	"vasopressor-weaned":  CategoryCirculatory,
	"mcs-start":           CategoryCirculatory,
	"mcs-weaning":         CategoryCirculatory,
	"mcs-weaned":          CategoryCirculatory,
	"new-arrhythmia":      CategoryCirculatory,
	"bleeding":            CategoryCirculatory,
	"rrt-start":           CategoryRenalFluid,
	"rrt-stop":            CategoryRenalFluid,
	"delirium":            CategoryConsciousness,
	"sat-success":         CategoryConsciousness,
	"sat-failure":         CategoryConsciousness,
	"new-infection":       CategoryInfection,
	"sitting":             CategoryActivityRehab,
	"standing":            CategoryActivityRehab,
	"walking":             CategoryActivityRehab,
	"tube-feeding-start":  CategoryNutritionGI,
	"oral-intake-start":   CategoryNutritionGI,
}

// milestones are events whose first occurrence time is of analytic
// interest; complications are events whose occurrence rate is.
var milestones = []string{
	"extubation",
	"vasopressor-weaned",
	"mcs-weaned",
	"rrt-stop",
	"sitting",
	"standing",
	"walking",
	"oral-intake-start",
	"ward-transfer",
}

var complications = []string{
	"re-intubation",
	"reoperation",
	"new-arrhythmia",
	"bleeding",
	"new-infection",
	"delirium",
	"sbt-failure",
	"sat-failure",
}

// CategoryOf resolves an event name to its category. Unknown names
// resolve to the unclassified catch-all.
func CategoryOf(name string) Category {
	if c, ok := registry[name]; ok {
		return c
	}
	return CategoryUnclassified
}

// Known reports whether the name is in the static registry.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// Names returns all registered event names, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FilterByCategory returns the registered names in the given category,
// sorted.
func FilterByCategory(cat Category) []string {
	var out []string
	for name, c := range registry {
		if c == cat {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Milestones returns the fixed milestone-event list.
func Milestones() []string { return append([]string(nil), milestones...) }

// Complications returns the fixed complication-event list.
func Complications() []string { return append([]string(nil), complications...) }

// ParseList splits a comma-joined event string into the set form,
// trimming whitespace and dropping duplicates while keeping first-seen
// order. Membership, not order, is what matters downstream.
func ParseList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// JoinList renders the set form back to the persisted comma-and-space
// representation.
func JoinList(names []string) string {
	return strings.Join(names, ", ")
}

// Contains reports set membership.
func Contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
