package novelty

import (
	"fmt"
	"sort"
	"strings"
)

const (
	DefaultThreshold    = 0.35
	DefaultWindowSize   = 10
	DefaultAvoidBigrams = 10
)

// Options tunes a Window. Zero values take defaults.
type Options struct {
	Threshold    float64
	WindowSize   int
	AvoidBigrams int
}

type recentKey struct {
	platform string
	theme    string
}

type dayKey struct {
	date     string
	platform string
}

type dayState struct {
	texts   []map[string]struct{}
	bigrams map[string]int
}

// Window is the in-memory novelty state for a single orchestrator run.
// It is not safe for concurrent use and is never persisted.
type Window struct {
	opts     Options
	texts    map[recentKey][]string
	openings map[recentKey][]string
	days     map[dayKey]*dayState
}

// NewWindow creates an empty window.
func NewWindow(opts Options) *Window {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.AvoidBigrams <= 0 {
		opts.AvoidBigrams = DefaultAvoidBigrams
	}
	return &Window{
		opts:     opts,
		texts:    make(map[recentKey][]string),
		openings: make(map[recentKey][]string),
		days:     make(map[dayKey]*dayState),
	}
}

// Avoid is the proactive novelty hint passed with every generation request.
type Avoid struct {
	RecentTexts    []string
	RecentOpenings []string
	DayBigrams     []string
}

// Empty reports whether there is nothing to avoid.
func (a Avoid) Empty() bool {
	return len(a.RecentTexts) == 0 && len(a.RecentOpenings) == 0 && len(a.DayBigrams) == 0
}

// Avoid returns the recent texts and openings for (platform, theme) and the
// most used bigrams so far for (date, platform).
func (w *Window) Avoid(date, platform, theme string) Avoid {
	k := recentKey{platform: platform, theme: theme}
	return Avoid{
		RecentTexts:    append([]string(nil), w.texts[k]...),
		RecentOpenings: append([]string(nil), w.openings[k]...),
		DayBigrams:     w.TopBigrams(date, platform, w.opts.AvoidBigrams),
	}
}

// Verdict is the result of a similarity check.
type Verdict struct {
	MaxSimilarity float64
	Collides      bool
	AvoidBigrams  []string
}

// Check compares text against every post already accepted for (date, platform).
func (w *Window) Check(date, platform, text string) Verdict {
	v := Verdict{}
	day := w.days[dayKey{date: date, platform: platform}]
	if day == nil {
		return v
	}
	candidate := Bigrams(text)
	for _, prev := range day.texts {
		if s := jaccard(candidate, prev); s > v.MaxSimilarity {
			v.MaxSimilarity = s
		}
	}
	if v.MaxSimilarity > w.opts.Threshold {
		v.Collides = true
		v.AvoidBigrams = w.TopBigrams(date, platform, w.opts.AvoidBigrams)
	}
	return v
}

// Accept records text as published for (date, platform) and (platform, theme).
func (w *Window) Accept(date, platform, theme, text string) {
	dk := dayKey{date: date, platform: platform}
	day := w.days[dk]
	if day == nil {
		day = &dayState{bigrams: make(map[string]int)}
		w.days[dk] = day
	}
	set := Bigrams(text)
	day.texts = append(day.texts, set)
	for bg := range set {
		day.bigrams[bg]++
	}

	rk := recentKey{platform: platform, theme: theme}
	w.texts[rk] = pushCapped(w.texts[rk], Normalize(text), w.opts.WindowSize)
	w.openings[rk] = pushCapped(w.openings[rk], OpeningPhrase(text), w.opts.WindowSize)
}

// TopBigrams returns up to n bigrams seen for (date, platform), most
// frequent first, ties alphabetical.
func (w *Window) TopBigrams(date, platform string, n int) []string {
	day := w.days[dayKey{date: date, platform: platform}]
	if day == nil || n <= 0 {
		return nil
	}
	out := make([]string, 0, len(day.bigrams))
	for bg := range day.bigrams {
		out = append(out, bg)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := day.bigrams[out[i]], day.bigrams[out[j]]
		if ci != cj {
			return ci > cj
		}
		return out[i] < out[j]
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func pushCapped(list []string, v string, limit int) []string {
	list = append(list, v)
	if len(list) > limit {
		list = list[len(list)-limit:]
	}
	return list
}

// CollisionInstruction is the corrective prompt for a regeneration after a
// similarity collision.
func CollisionInstruction(avoid []string) string {
	var b strings.Builder
	b.WriteString("This draft is too similar to another post published today. ")
	b.WriteString("Use a different opening structure and sentence rhythm.")
	if len(avoid) > 0 {
		fmt.Fprintf(&b, " Do not use these phrases: %s.", strings.Join(quoteAll(avoid), ", "))
	}
	return b.String()
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
