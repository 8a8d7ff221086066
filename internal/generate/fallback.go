package generate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/orbitplan/internal/catalog"
)

const ellipsis = "…"

// Templates is the deterministic FallbackBuilder. Every template mentions
// the topic where the validator requires it and fits the platform limit.
type Templates struct{}

// Build renders the template for pack. Variant picks an alternate wording.
func (Templates) Build(pack Pack) Copy {
	base := pack.Common()
	limit := ContentLimit(base.Platform, base.Hashtags)
	var content string

	switch p := pack.(type) {
	case EducationalIntro:
		content = educational(p, limit)
	case Question:
		content = question(p, limit)
	case ClosingRitual:
		content = closing(p, limit)
	case SabbatCrossPost:
		content = sabbat(p, limit)
	case SecondaryTheme:
		content = secondary(p, limit)
	case VideoScript:
		content = script(p)
	case VideoCaption:
		content = caption(p)
	case OpeningLine:
		content = opening(p)
	default:
		content = fit(base.Topic, limit)
	}
	return Copy{Content: content, Hashtags: append([]string(nil), base.Hashtags...)}
}

func educational(p EducationalIntro, limit int) string {
	f := p.Facet
	lead := f.Title + ":"
	if p.Opening != "" {
		lead = strings.TrimSpace(p.Opening)
	}
	body := pick(p.Variant, f.ShortFormHook, sentence(f.Focus))
	if !p.LongForm {
		return lead + " " + fit(body, limit-utf8.RuneCountInString(lead)-1)
	}
	text := fmt.Sprintf("%s\n\n%s\n\nFocus: %s\n\nPart of this week's %s series.",
		lead, f.ShortFormHook, sentence(f.Focus), p.ThemeName)
	if p.Variant%2 == 1 {
		text = fmt.Sprintf("%s\n\n%s\n\n%s\n\nFollow along for the rest of %s week.",
			lead, sentence(f.Focus), f.ShortFormHook, p.ThemeName)
	}
	return fitKeepingLead(lead, text, limit)
}

func question(p Question, limit int) string {
	var q string
	switch {
	case p.Thread.Keyword != "" && p.Variant%2 == 0:
		q = fmt.Sprintf("When you think about %s, what comes up for you first", p.Thread.Keyword)
	case p.Variant%2 == 1:
		q = fmt.Sprintf("Where has %s shown up in your week so far", p.Facet.Title)
	default:
		q = fmt.Sprintf("What has %s taught you about %s", p.Facet.Title, lowerFirst(trimPeriod(p.Facet.Focus)))
	}
	return fit(q, limit-1) + "?"
}

func closing(p ClosingRitual, limit int) string {
	if !p.LongForm {
		text := pick(p.Variant,
			fmt.Sprintf("Sunday closing ritual: breathe in, breathe out, and let %s week settle.", p.ThemeName),
			fmt.Sprintf("Before the new week begins, sit quietly and thank %s week for what it showed you.", p.ThemeName),
		)
		return fit(text, limit)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Closing ritual for %s week.\n\n", p.ThemeName)
	b.WriteString(pick(p.Variant,
		"Light a candle, slow your breath, and name one thing you are ready to release.",
		"Sit somewhere quiet, place a hand on your heart, and let the week's lessons settle.",
	))
	if len(p.WeekTopics) > 0 {
		fmt.Fprintf(&b, "\n\nThis week we explored: %s.", strings.Join(p.WeekTopics, ", "))
	}
	return fit(b.String(), limit)
}

func sabbat(p SabbatCrossPost, limit int) string {
	lead := fmt.Sprintf("%s is here. %s:", p.Sabbat.Name, p.Facet.Title)
	text := fmt.Sprintf("%s %s\n\n%s", lead, p.Facet.ShortFormHook, p.Sabbat.Description)
	if p.Variant%2 == 1 {
		text = fmt.Sprintf("%s %s\n\n%s", lead, sentence(p.Facet.Focus), p.Facet.ShortFormHook)
	}
	return fitKeepingLead(lead, text, limit)
}

func secondary(p SecondaryTheme, limit int) string {
	lead := pick(p.Variant,
		fmt.Sprintf("Also this week, %s: %s.", p.ThemeName, p.Facet.Title),
		fmt.Sprintf("A side note from %s, %s.", p.ThemeName, p.Facet.Title),
	)
	return fitKeepingLead(lead, lead+" "+p.Facet.ShortFormHook, limit)
}

var angleHooks = map[string]string{
	catalog.AngleMisconception:   "Most people get %s wrong.",
	catalog.AngleFeltExperience:  "If %s hits you hard, here is why.",
	catalog.AnglePracticalRitual: "Try this %s ritual tonight.",
	catalog.AngleTiming:          "Timing matters with %s.",
	catalog.AngleComparison:      "%s is not what you think it is.",
	catalog.AngleOriginStory:     "Where %s really comes from.",
	catalog.AngleQuickReference:  "%s in thirty seconds.",
}

// HookFor renders the template hook for an angle.
func HookFor(angle, topic string) string {
	format, ok := angleHooks[angle]
	if !ok {
		format = "%s, explained."
	}
	return fmt.Sprintf(format, topic)
}

func script(p VideoScript) string {
	f := p.Facet
	body := []string{
		HookFor(p.Angle, f.Title),
		sentence(f.Focus),
		f.ShortFormHook,
	}
	if p.Part < p.TotalParts {
		body = append(body, fmt.Sprintf("Part %d of %d. Follow for part %d.", p.Part, p.TotalParts, p.Part+1))
	} else {
		body = append(body, "Save this for later.")
	}
	if p.Variant%2 == 1 {
		body[1], body[2] = body[2], body[1]
	}
	return strings.Join(body, "\n")
}

func caption(p VideoCaption) string {
	hook := p.Hook
	if hook == "" {
		hook = p.Facet.Title + " in under a minute."
	}
	out := []string{hook}
	if p.TotalParts > 0 {
		out = append(out, fmt.Sprintf("Part %d of %d: %s.", p.Part, p.TotalParts, p.Facet.Title))
	} else {
		out = append(out, p.Facet.Title+".")
	}
	if p.Part < p.TotalParts {
		out = append(out, fmt.Sprintf("Follow for part %d.", p.Part+1))
	}
	return strings.Join(out, "\n")
}

var openingTemplates = map[string][]string{
	"define":      {"%s, defined simply.", "What %s actually means."},
	"contrast":    {"%s is not what most people assume.", "Forget the usual take on %s."},
	"question":    {"Ever wondered what %s really means?", "Why does %s matter right now?"},
	"observation": {"Notice how %s shows up this week.", "You have probably felt %s without naming it."},
	"myth":        {"Here is the myth about %s.", "The biggest myth about %s, cleared up."},
	"scene":       {"Picture a quiet evening and %s at work.", "Step outside tonight and think about %s."},
}

func opening(p OpeningLine) string {
	variants, ok := openingTemplates[p.Intent]
	if !ok {
		variants = openingTemplates["define"]
	}
	return fmt.Sprintf(variants[p.Variant%len(variants)], p.Facet.Title)
}

func pick(variant int, options ...string) string {
	return options[variant%len(options)]
}

// fit trims text to limit runes at a word boundary.
func fit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:limit-1])
	if i := strings.LastIndexAny(cut, " \n"); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " \n,.;:") + ellipsis
}

// fitKeepingLead trims text but never below the lead line.
func fitKeepingLead(lead, text string, limit int) string {
	if utf8.RuneCountInString(lead) >= limit {
		return fit(lead, limit)
	}
	return fit(text, limit)
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, ".") {
		return s
	}
	return s + "."
}

func trimPeriod(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ".")
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return strings.ToLower(string(r)) + s[size:]
}
