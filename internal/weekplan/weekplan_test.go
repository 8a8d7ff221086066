package weekplan

import (
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/orbitplan/internal/catalog"
)

func mustCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestResolveWeek(t *testing.T) {
	wednesday := time.Date(2025, 1, 8, 15, 30, 0, 0, time.UTC)
	tests := []struct {
		name    string
		start   string
		current bool
		want    string
	}{
		{"explicit monday", "2025-01-06", false, "2025-01-06"},
		{"explicit sunday aligns back", "2025-01-12", false, "2025-01-06"},
		{"explicit wins over current", "2025-01-15", true, "2025-01-13"},
		{"current week", "", true, "2025-01-06"},
		{"next week by default", "", false, "2025-01-13"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ResolveWeek(tt.start, tt.current, wednesday)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if w.StartKey() != tt.want {
				t.Errorf("start = %s, want %s", w.StartKey(), tt.want)
			}
			if got := w.End.Sub(w.Start); got != 6*24*time.Hour {
				t.Errorf("window length = %v", got)
			}
		})
	}
}

func TestResolveWeek_Invalid(t *testing.T) {
	_, err := ResolveWeek("2025-13-40", false, time.Now())
	if !errors.Is(err, ErrInvalidWeekStart) {
		t.Fatalf("err = %v, want ErrInvalidWeekStart", err)
	}
}

func TestOffset(t *testing.T) {
	tests := map[string]int{
		"2025-01-06": 0,
		"2025-01-08": 2,
		"2025-01-11": 5,
		"2025-01-12": 6,
	}
	for d, want := range tests {
		if got := Offset(date(d)); got != want {
			t.Errorf("Offset(%s) = %d, want %d", d, got, want)
		}
	}
}

func TestBuild_LunarWeek(t *testing.T) {
	cat := mustCatalog(t)
	week, _ := ResolveWeek("2025-01-06", false, time.Now())

	plan := Build(cat, week, 0)
	if plan.Theme.Name != "Lunar Cycles" {
		t.Fatalf("theme = %q", plan.Theme.Name)
	}
	if len(plan.Days) != 7 {
		t.Fatalf("days = %d, want 7", len(plan.Days))
	}

	wantDates := []string{"2025-01-06", "2025-01-07", "2025-01-08", "2025-01-09", "2025-01-10", "2025-01-11", "2025-01-12"}
	seen := map[string]bool{}
	for i, d := range plan.Days {
		if d.DateKey() != wantDates[i] {
			t.Errorf("day %d date = %s, want %s", i, d.DateKey(), wantDates[i])
		}
		if d.Facet.Title != plan.Theme.Facets[i].Title {
			t.Errorf("day %d facet = %q, want %q", i, d.Facet.Title, plan.Theme.Facets[i].Title)
		}
		if d.Source != SourceTheme {
			t.Errorf("day %d source = %s", i, d.Source)
		}
		if seen[d.Topic()] {
			t.Errorf("facet %q repeated", d.Topic())
		}
		seen[d.Topic()] = true
	}
}

func TestBuild_SabbatLeadUp(t *testing.T) {
	cat := mustCatalog(t)
	week, _ := ResolveWeek("2025-10-27", false, time.Now())
	plan := Build(cat, week, 0)

	want := map[int]string{
		0: plan.Theme.Facets[0].Title,
		1: "Origins of Samhain",
		2: "Samhain Correspondences",
		3: "Ancestor Work",
		4: "Samhain Celebration",
		5: plan.Theme.Facets[5].Title,
	}
	for off, title := range want {
		if got := plan.Days[off].Topic(); got != title {
			t.Errorf("offset %d topic = %q, want %q", off, got, title)
		}
	}
	if !plan.Days[4].SabbatDay {
		t.Error("Oct 31 should be the sabbat day")
	}
	if plan.Days[3].SabbatDay {
		t.Error("Oct 30 is a lead-up day, not the sabbat")
	}
	if plan.Days[2].ThemeName() != "Samhain" {
		t.Errorf("lead-up theme name = %q", plan.Days[2].ThemeName())
	}
	if plan.Days[2].Category() != catalog.CategorySabbat {
		t.Errorf("lead-up category = %q", plan.Days[2].Category())
	}
}

func TestFilterFrom_CurrentWeek(t *testing.T) {
	cat := mustCatalog(t)
	wednesday := time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC)
	week, _ := ResolveWeek("", true, wednesday)
	plan := Build(cat, week, 0)

	days := FilterFrom(plan.Days, Offset(wednesday))
	if len(days) != 5 {
		t.Fatalf("days = %d, want 5", len(days))
	}
	if days[0].DateKey() != "2025-01-08" || days[4].DateKey() != "2025-01-12" {
		t.Errorf("range = %s..%s", days[0].DateKey(), days[4].DateKey())
	}
}

func countSlots(slots []Slot) map[PostType]int {
	out := map[PostType]int{}
	for _, s := range slots {
		out[s.PostType]++
	}
	return out
}

func TestSlots_RegularWeek(t *testing.T) {
	cat := mustCatalog(t)
	week, _ := ResolveWeek("2025-01-06", false, time.Now())
	plan := Build(cat, week, 0)

	slots := Slots(plan.Days, SlotOptions{})
	got := countSlots(slots)
	want := map[PostType]int{
		PostEducational:   42,
		PostVideo:         21,
		PostQuestion:      2,
		PostClosingRitual: 6,
	}
	for pt, n := range want {
		if got[pt] != n {
			t.Errorf("%s slots = %d, want %d", pt, got[pt], n)
		}
	}
	if got[PostSecondary] != 0 || got[PostSabbat] != 0 {
		t.Errorf("unexpected optional slots: %v", got)
	}

	for _, s := range slots {
		if s.PostType == PostQuestion {
			if s.Platform != Threads {
				t.Errorf("question on %s", s.Platform)
			}
			if wd := s.Day.Date.Weekday(); wd != time.Wednesday && wd != time.Saturday {
				t.Errorf("question on %s", wd)
			}
		}
		if s.PostType == PostClosingRitual && (s.Day.Date.Weekday() != time.Sunday || s.Time != "20:00") {
			t.Errorf("closing ritual at %s %s", s.Day.Date.Weekday(), s.Time)
		}
		if s.Time == "" {
			t.Errorf("slot %s/%s has no time", s.Platform, s.PostType)
		}
	}
}

func TestSlots_SecondaryAndSabbat(t *testing.T) {
	cat := mustCatalog(t)
	week, _ := ResolveWeek("2025-10-27", false, time.Now())
	plan := Build(cat, week, 0)

	got := countSlots(Slots(plan.Days, SlotOptions{IncludeSecondary: true}))
	if got[PostSecondary] != 7 {
		t.Errorf("secondary = %d, want 7", got[PostSecondary])
	}
	if got[PostSabbat] != len(LongForm) {
		t.Errorf("sabbat cross-posts = %d, want %d", got[PostSabbat], len(LongForm))
	}
}

func TestSlots_DayOrder(t *testing.T) {
	cat := mustCatalog(t)
	week, _ := ResolveWeek("2025-01-06", false, time.Now())
	slots := Slots(Build(cat, week, 0).Days, SlotOptions{})
	for i := 1; i < len(slots); i++ {
		if slots[i].Day.Offset < slots[i-1].Day.Offset {
			t.Fatalf("slot %d goes back a day", i)
		}
	}
}

func TestIntentRotation(t *testing.T) {
	r := NewIntentRotation()
	seen := map[string]bool{}
	for range OpeningIntents {
		intent := r.Next("New Moon")
		if seen[intent] {
			t.Fatalf("intent %q repeated before exhausting the list", intent)
		}
		seen[intent] = true
	}
	if got := r.Next("New Moon"); got != OpeningIntents[0] {
		t.Errorf("wrap = %q, want %q", got, OpeningIntents[0])
	}
	if got := r.Next("Full Moon"); got != OpeningIntents[0] {
		t.Errorf("other topic starts at %q", got)
	}
}

func TestIsLongForm(t *testing.T) {
	if !IsLongForm(LinkedIn) || IsLongForm(Twitter) || IsLongForm(TikTok) {
		t.Error("long-form classification wrong")
	}
	if len(TextPlatforms()) != 6 {
		t.Errorf("text platforms = %v", TextPlatforms())
	}
}
