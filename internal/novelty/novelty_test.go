package novelty

import (
	"fmt"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	got := Normalize("  The Full   Moon\n#FullMoon brings #lunar_magic RELEASE ")
	if got != "the full moon brings release" {
		t.Errorf("normalize = %q", got)
	}
}

func TestOpeningPhrase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The New Moon marks the beginning.", "the new moon marks"},
		{"Short one", "short one"},
		{"#tag Hello, world! How are you today", "hello world how are"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := OpeningPhrase(tt.in); got != tt.want {
			t.Errorf("OpeningPhrase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBigrams(t *testing.T) {
	got := Bigrams("The moon, the moon rises")
	want := []string{"the moon", "moon the", "moon rises"}
	if len(got) != len(want) {
		t.Fatalf("bigrams = %v", got)
	}
	for _, w := range want {
		if _, ok := got[w]; !ok {
			t.Errorf("missing bigram %q", w)
		}
	}
	if len(Bigrams("single")) != 0 {
		t.Error("single word should have no bigrams")
	}
}

func TestJaccardProperties(t *testing.T) {
	texts := []string{
		"The Full Moon brings illumination and culmination.",
		"Full Moon energy brings release and illumination tonight.",
		"Crystals hold memory of the earth.",
		"one",
		"",
		"#onlytags #here",
	}
	for _, a := range texts {
		for _, b := range texts {
			ab := JaccardSimilarity(a, b)
			ba := JaccardSimilarity(b, a)
			if ab != ba {
				t.Errorf("asymmetric: %q/%q %v != %v", a, b, ab, ba)
			}
			if ab < 0 || ab > 1 {
				t.Errorf("out of bounds: %q/%q %v", a, b, ab)
			}
		}
		if len(Bigrams(a)) > 0 && JaccardSimilarity(a, a) != 1 {
			t.Errorf("self similarity of %q != 1", a)
		}
		if len(Bigrams(a)) == 0 && JaccardSimilarity(a, a) != 0 {
			t.Errorf("empty bigram text %q should score 0", a)
		}
	}
}

func TestJaccardValue(t *testing.T) {
	// {a b, b c, c d} vs {a b, b c, c e}: 2 shared, 4 total.
	if got := JaccardSimilarity("a b c d", "a b c e"); got != 0.5 {
		t.Errorf("similarity = %v, want 0.5", got)
	}
}

func TestWindowCheckAndAccept(t *testing.T) {
	w := NewWindow(Options{})

	if v := w.Check("2025-01-06", "twitter", "a b c d"); v.Collides || v.MaxSimilarity != 0 {
		t.Fatalf("empty window verdict = %+v", v)
	}
	w.Accept("2025-01-06", "twitter", "Lunar Cycles", "a b c d")

	v := w.Check("2025-01-06", "twitter", "a b c e")
	if !v.Collides || v.MaxSimilarity != 0.5 {
		t.Fatalf("verdict = %+v, want collision at 0.5", v)
	}
	if len(v.AvoidBigrams) != 3 {
		t.Errorf("avoid bigrams = %v", v.AvoidBigrams)
	}

	if v := w.Check("2025-01-07", "twitter", "a b c e"); v.Collides {
		t.Error("other day should not collide")
	}
	if v := w.Check("2025-01-06", "bluesky", "a b c e"); v.Collides {
		t.Error("other platform should not collide")
	}
	if v := w.Check("2025-01-06", "twitter", "x y z w"); v.Collides {
		t.Error("unrelated text should not collide")
	}
}

func TestWindowThresholdConfigurable(t *testing.T) {
	w := NewWindow(Options{Threshold: 0.6})
	w.Accept("d", "p", "t", "a b c d")
	if v := w.Check("d", "p", "a b c e"); v.Collides {
		t.Errorf("0.5 similarity should pass a 0.6 threshold: %+v", v)
	}
}

func TestWindowRecentCapped(t *testing.T) {
	w := NewWindow(Options{WindowSize: 3})
	for i := 0; i < 5; i++ {
		w.Accept(fmt.Sprintf("2025-01-%02d", i+1), "threads", "Tarot", fmt.Sprintf("Post number %d about tarot cards", i))
	}
	a := w.Avoid("2025-01-09", "threads", "Tarot")
	if len(a.RecentTexts) != 3 || len(a.RecentOpenings) != 3 {
		t.Fatalf("avoid = %+v", a)
	}
	if a.RecentOpenings[0] != "post number 2 about" {
		t.Errorf("oldest kept opening = %q", a.RecentOpenings[0])
	}
	if len(a.DayBigrams) != 0 {
		t.Errorf("no posts yet on that day: %v", a.DayBigrams)
	}
	if other := w.Avoid("2025-01-09", "threads", "Crystals"); !other.Empty() {
		t.Errorf("other theme avoid = %+v", other)
	}
}

func TestTopBigramsOrder(t *testing.T) {
	w := NewWindow(Options{})
	w.Accept("d", "p", "t", "moon magic is real")
	w.Accept("d", "p", "t", "moon magic for beginners")
	got := w.TopBigrams("d", "p", 2)
	if len(got) != 2 || got[0] != "moon magic" {
		t.Fatalf("top bigrams = %v", got)
	}
	if got[1] != "for beginners" {
		t.Errorf("tie break = %q, want alphabetical", got[1])
	}
}

func TestCollisionInstruction(t *testing.T) {
	got := CollisionInstruction([]string{"full moon", "brings release"})
	if !strings.Contains(got, "different opening") || !strings.Contains(got, `"full moon"`) {
		t.Errorf("instruction = %q", got)
	}
	if strings.Contains(CollisionInstruction(nil), "Do not use") {
		t.Error("no phrase list expected without bigrams")
	}
}
