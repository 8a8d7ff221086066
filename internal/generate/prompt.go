package generate

import (
	"fmt"
	"strings"
)

const systemPrompt = "You write social media copy for an astrology and spiritual practice brand. " +
	"Voice: warm, grounded, specific. No emojis. Do not include hashtags; they are added separately. " +
	`Reply with JSON only: {"content": "<post text>"}.`

// Prompt renders the system and user messages for pack.
func Prompt(pack Pack, instruction string) (string, string) {
	base := pack.Common()
	var b strings.Builder

	fmt.Fprintf(&b, "Platform: %s (max %d characters)\n", base.Platform, ContentLimit(base.Platform, base.Hashtags))
	fmt.Fprintf(&b, "Date: %s\n", base.Date)
	fmt.Fprintf(&b, "Theme: %s\n", base.ThemeName)
	fmt.Fprintf(&b, "Topic: %s\n", base.Topic)
	if base.Facet.Focus != "" {
		fmt.Fprintf(&b, "Focus: %s\n", base.Facet.Focus)
	}
	if base.Facet.ShortFormHook != "" {
		fmt.Fprintf(&b, "Reference: %s\n", base.Facet.ShortFormHook)
	}

	switch p := pack.(type) {
	case EducationalIntro:
		if p.LongForm {
			b.WriteString("Task: write a long-form educational post of three short paragraphs.\n")
		} else {
			b.WriteString("Task: write a short educational post in one or two sentences.\n")
		}
		if p.Opening != "" {
			fmt.Fprintf(&b, "Start with exactly this line: %s\n", p.Opening)
		}
	case Question:
		b.WriteString("Task: ask the audience one open question. End with a question mark.\n")
		if p.Thread.Keyword != "" {
			fmt.Fprintf(&b, "Thread: %s\n", p.Thread.Keyword)
		}
	case ClosingRitual:
		b.WriteString("Task: write a calm Sunday evening closing ritual for the week.\n")
		if len(p.WeekTopics) > 0 {
			fmt.Fprintf(&b, "This week covered: %s\n", strings.Join(p.WeekTopics, ", "))
		}
	case SabbatCrossPost:
		fmt.Fprintf(&b, "Task: write a long-form post celebrating %s today.\n", p.Sabbat.Name)
	case SecondaryTheme:
		fmt.Fprintf(&b, "Task: write a short side post. The main theme this week is %s.\n", p.PrimaryTheme)
	case VideoScript:
		fmt.Fprintf(&b, "Task: write a 30 second video script, part %d of %d. ", p.Part, p.TotalParts)
		b.WriteString("The first line is the hook, then one sentence per line.\n")
		fmt.Fprintf(&b, "Angle: %s\nAspect: %s\n", p.Angle, p.Aspect)
		if p.ContentCategory != "" {
			fmt.Fprintf(&b, "Content category: %s\n", p.ContentCategory)
		}
	case VideoCaption:
		fmt.Fprintf(&b, "Task: write a video caption of 2 to 4 short lines for part %d of %d.\n", p.Part, p.TotalParts)
		if p.Hook != "" {
			fmt.Fprintf(&b, "Video hook: %s\n", p.Hook)
		}
	case OpeningLine:
		fmt.Fprintf(&b, "Task: write one opening line only. Opening intent: %s.\n", p.Intent)
	}

	if len(base.Avoid.RecentOpenings) > 0 {
		fmt.Fprintf(&b, "Do not open with any of: %s\n", strings.Join(quoted(base.Avoid.RecentOpenings), ", "))
	}
	if len(base.Avoid.DayBigrams) > 0 {
		fmt.Fprintf(&b, "Avoid these phrases already used today: %s\n", strings.Join(quoted(base.Avoid.DayBigrams), ", "))
	}
	if len(base.Avoid.RecentTexts) > 0 {
		b.WriteString("Recent posts on this platform (do not repeat them):\n")
		for _, t := range base.Avoid.RecentTexts {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	if instruction != "" {
		fmt.Fprintf(&b, "\n%s\n", instruction)
	}
	return systemPrompt, b.String()
}

func quoted(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
