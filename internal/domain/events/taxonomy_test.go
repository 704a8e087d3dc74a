package events

import (
	"testing"
)

func TestCategoryOf(t *testing.T) {
	cases := map[string]Category{
		"extubation":        CategoryRespiratory,
		"vasopressor-up":    CategoryCirculatory,
		"rrt-start":         CategoryRenalFluid,
		"delirium":          CategoryConsciousness,
		"walking":           CategoryActivityRehab,
		"oral-intake-start": CategoryNutritionGI,
		"new-infection":     CategoryInfection,
		"admission":         CategoryOther,
		"free-text-note":    CategoryUnclassified,
		"":                  CategoryUnclassified,
	}
	for name, want := range cases {
		if got := CategoryOf(name); got != want {
			t.Errorf("CategoryOf(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestEveryRegisteredNameHasSelectableCategory(t *testing.T) {
	selectable := map[Category]bool{}
	for _, c := range Categories {
		selectable[c] = true
	}
	for _, name := range Names() {
		if !selectable[CategoryOf(name)] {
			t.Errorf("event %q resolves to non-selectable category %s", name, CategoryOf(name))
		}
	}
}

func TestMilestonesAndComplicationsAreRegistered(t *testing.T) {
	for _, name := range Milestones() {
		if !Known(name) {
			t.Errorf("milestone %q missing from registry", name)
		}
	}
	for _, name := range Complications() {
		if !Known(name) {
			t.Errorf("complication %q missing from registry", name)
		}
	}
}

func TestFilterByCategory(t *testing.T) {
	names := FilterByCategory(CategoryRenalFluid)
	if len(names) != 2 || names[0] != "rrt-start" || names[1] != "rrt-stop" {
		t.Errorf("unexpected renal-fluid events: %v", names)
	}
}

func TestParseList(t *testing.T) {
	got := ParseList(" extubation, sitting ,extubation,, walking")
	want := []string{"extubation", "sitting", "walking"}
	if len(got) != len(want) {
		t.Fatalf("ParseList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseList[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := ParseList("  "); got != nil {
		t.Errorf("blank input should parse to nil, got %v", got)
	}
}

func TestJoinListRoundTrip(t *testing.T) {
	names := []string{"extubation", "sitting"}
	joined := JoinList(names)
	if joined != "extubation, sitting" {
		t.Errorf("JoinList = %q", joined)
	}
	back := ParseList(joined)
	if len(back) != 2 || back[0] != "extubation" || back[1] != "sitting" {
		t.Errorf("round trip lost names: %v", back)
	}
}

func TestContains(t *testing.T) {
	names := []string{"extubation", "sitting"}
	if !Contains(names, "sitting") {
		t.Error("expected membership")
	}
	if Contains(names, "walking") {
		t.Error("unexpected membership")
	}
}
