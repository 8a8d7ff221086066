package generate

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ppiankov/orbitplan/internal/catalog"
)

func testFacet() catalog.Facet {
	return catalog.Facet{
		Title:         "New Moon",
		Focus:         "Beginnings, intention setting, planting seeds",
		ShortFormHook: "The New Moon is the dark start of the cycle, a quiet window for setting intentions.",
		GrimoireSlug:  "moon/new-moon",
		Threads:       []catalog.Thread{{Keyword: "intentions", Angles: []string{"Practical ritual"}}},
	}
}

func testBase(platform string) Base {
	return Base{
		Platform:  platform,
		Date:      "2025-01-07",
		Topic:     "New Moon",
		ThemeName: "Lunar Cycles",
		Category:  catalog.CategoryLunar,
		Facet:     testFacet(),
		Hashtags:  catalog.HashtagsFor(catalog.CategoryLunar, "New Moon").ForPlatform(platform),
	}
}

func allPacks(platform string) []Pack {
	b := testBase(platform)
	return []Pack{
		EducationalIntro{Base: b},
		EducationalIntro{Base: b, LongForm: true},
		EducationalIntro{Base: b, Opening: "New Moon, defined simply."},
		Question{Base: b, Thread: b.Facet.Threads[0]},
		Question{Base: b},
		ClosingRitual{Base: b, WeekTopics: []string{"New Moon", "Full Moon"}},
		ClosingRitual{Base: b, LongForm: true, WeekTopics: []string{"New Moon", "Full Moon"}},
		SabbatCrossPost{Base: b, Sabbat: catalog.Sabbat{Name: "Imbolc", Description: "Imbolc and the returning light."}},
		SecondaryTheme{Base: b, PrimaryTheme: "Tarot"},
		VideoScript{Base: b, Angle: catalog.AngleMisconception, Aspect: catalog.AspectCommonMistakes, Part: 2, TotalParts: 7},
		VideoScript{Base: b, Angle: catalog.AngleQuickReference, Part: 7, TotalParts: 7},
		VideoCaption{Base: b, Hook: "Most people get New Moon wrong.", Part: 1, TotalParts: 7},
		VideoCaption{Base: b, Part: 7, TotalParts: 7},
		OpeningLine{Base: b, Intent: "myth"},
	}
}

func TestTemplates_AlwaysValid(t *testing.T) {
	v, err := NewValidator(nil)
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	for _, platform := range []string{"twitter", "bluesky", "threads", "linkedin", "pinterest", "facebook", "tiktok"} {
		for _, p := range allPacks(platform) {
			for variant := 0; variant < 3; variant++ {
				pack := WithVariant(p, variant)
				c := Templates{}.Build(pack)
				if issues := v.Validate(c.Content, pack); len(issues) > 0 {
					t.Errorf("%s/%s variant %d: %v\n%s", platform, pack.Kind(), variant, issues, c.Content)
				}
			}
		}
	}
}

func TestTemplates_Deterministic(t *testing.T) {
	for _, p := range allPacks("twitter") {
		a := Templates{}.Build(p)
		b := Templates{}.Build(p)
		if a.Content != b.Content {
			t.Errorf("%s not deterministic", p.Kind())
		}
	}
}

func TestTemplates_VariantChangesWording(t *testing.T) {
	p := EducationalIntro{Base: testBase("twitter")}
	a := Templates{}.Build(p).Content
	b := Templates{}.Build(WithVariant(p, 1)).Content
	if a == b {
		t.Errorf("variant 1 should differ: %q", a)
	}
}

func TestTemplates_HashtagsFromPack(t *testing.T) {
	c := Templates{}.Build(EducationalIntro{Base: testBase("twitter")})
	if len(c.Hashtags) != 2 {
		t.Errorf("twitter hashtags = %v", c.Hashtags)
	}
	c = Templates{}.Build(EducationalIntro{Base: testBase("threads")})
	if len(c.Hashtags) != 0 {
		t.Errorf("threads hashtags = %v", c.Hashtags)
	}
}

func TestTemplates_OpeningLeadsEducational(t *testing.T) {
	p := EducationalIntro{Base: testBase("bluesky"), Opening: "Here is the myth about New Moon."}
	c := Templates{}.Build(p)
	if !strings.HasPrefix(c.Content, "Here is the myth about New Moon.") {
		t.Errorf("content = %q", c.Content)
	}
}

func TestValidate_Rules(t *testing.T) {
	v, _ := NewValidator([]string{`(?i)guaranteed`})
	b := testBase("twitter")

	tests := []struct {
		name    string
		content string
		pack    Pack
		want    string
	}{
		{"empty", "   ", EducationalIntro{Base: b}, "empty"},
		{"too long", "New Moon " + strings.Repeat("x", 300), EducationalIntro{Base: b}, "limit"},
		{"topic missing", "A quiet night.", EducationalIntro{Base: b}, "does not mention"},
		{"opening missing", "New Moon basics.", EducationalIntro{Base: b, Opening: "Ever wondered?"}, "opening line"},
		{"question mark", "What does New Moon mean to you.", Question{Base: b}, "question mark"},
		{"caption lines", "New Moon", VideoCaption{Base: b}, "lines"},
		{"caption too many lines", "New Moon\na\nb\nc\nd", VideoCaption{Base: b}, "lines"},
		{"script lines", "hook\nbody", VideoScript{Base: b}, "at least"},
		{"opening lines", "New Moon\nsecond", OpeningLine{Base: b}, "single line"},
		{"banned", "New Moon results guaranteed.", EducationalIntro{Base: b}, "banned"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := v.Validate(tt.content, tt.pack)
			if len(issues) == 0 {
				t.Fatal("expected issues")
			}
			found := false
			for _, is := range issues {
				if strings.Contains(is, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("issues %v do not mention %q", issues, tt.want)
			}
		})
	}
}

func TestValidate_TopicCaseInsensitive(t *testing.T) {
	v, _ := NewValidator(nil)
	if issues := v.Validate("the new moon returns.", EducationalIntro{Base: testBase("twitter")}); len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}
}

func TestValidate_NilValidatorSkipsPatterns(t *testing.T) {
	var v *RuleValidator
	if issues := v.Validate("New Moon tonight.", SecondaryTheme{Base: testBase("twitter")}); len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}
}

func TestNewValidator_InvalidPattern(t *testing.T) {
	if _, err := NewValidator([]string{`[invalid`}); err == nil {
		t.Fatal("expected error")
	}
}

func TestContentLimit(t *testing.T) {
	tags := []string{"#moonphases", "#newmoon"}
	if got, want := ContentLimit("twitter", tags), 280-12-9; got != want {
		t.Errorf("ContentLimit = %d, want %d", got, want)
	}
	if CharLimit("unknown") != defaultCharLimit {
		t.Error("unknown platforms use the default limit")
	}
}

func TestFit(t *testing.T) {
	text := "one two three four five six"
	got := fit(text, 12)
	if utf8.RuneCountInString(got) > 12 || !strings.HasSuffix(got, ellipsis) {
		t.Errorf("fit = %q", got)
	}
	if fit("short", 10) != "short" {
		t.Error("short text should pass through")
	}
	if fit("anything", 0) != "" {
		t.Error("zero limit should yield empty")
	}
}

func TestHookFor(t *testing.T) {
	if got := HookFor(catalog.AngleMisconception, "Tarot"); got != "Most people get Tarot wrong." {
		t.Errorf("hook = %q", got)
	}
	if got := HookFor("Unknown", "Tarot"); got != "Tarot, explained." {
		t.Errorf("hook = %q", got)
	}
}

func TestWithVariant(t *testing.T) {
	for _, p := range allPacks("twitter") {
		if got := WithVariant(p, 3).Common().Variant; got != 3 {
			t.Errorf("%s variant = %d", p.Kind(), got)
		}
	}
}

func TestPrompt_IncludesAvoidAndInstruction(t *testing.T) {
	b := testBase("twitter")
	b.Avoid.RecentOpenings = []string{"the new moon is"}
	b.Avoid.DayBigrams = []string{"new moon"}
	_, user := Prompt(EducationalIntro{Base: b, Opening: "New Moon, defined simply."}, "Fix it.")
	for _, want := range []string{"Topic: New Moon", "the new moon is", `"new moon"`, "Start with exactly this line", "Fix it."} {
		if !strings.Contains(user, want) {
			t.Errorf("prompt missing %q:\n%s", want, user)
		}
	}
}
