// Package generate turns source packs into post copy. A Generator proposes
// copy, a Validator rejects it, and a FallbackBuilder always produces a
// deterministic template when both retries run out.
package generate

import (
	"context"

	"github.com/ppiankov/orbitplan/internal/catalog"
	"github.com/ppiankov/orbitplan/internal/novelty"
)

// Kinds of source pack.
const (
	KindEducationalIntro = "educational_intro"
	KindQuestion         = "question"
	KindClosingRitual    = "closing_ritual"
	KindSabbatCrossPost  = "sabbat_crosspost"
	KindSecondaryTheme   = "secondary_theme"
	KindVideoScript      = "video_script"
	KindVideoCaption     = "video_caption"
	KindOpeningLine      = "opening_line"
)

// Base carries the fields every pack has.
type Base struct {
	Platform  string
	Date      string
	Topic     string
	ThemeName string
	Category  catalog.Category
	Facet     catalog.Facet
	Hashtags  []string
	Avoid     novelty.Avoid
	// Variant selects an alternate template on regeneration.
	Variant int
}

// Common returns the shared fields.
func (b Base) Common() Base { return b }

func (Base) pack() {}

// Pack is a typed description of the post to write. The set of
// implementations is closed.
type Pack interface {
	Kind() string
	Common() Base
	pack()
}

// EducationalIntro is the daily facet post on a text platform.
type EducationalIntro struct {
	Base
	LongForm bool
	// Opening, when set, is the line the copy must start with.
	Opening string
}

// Question is a conversation prompt on a facet thread.
type Question struct {
	Base
	Thread catalog.Thread
}

// ClosingRitual is the Sunday evening post wrapping up the week.
type ClosingRitual struct {
	Base
	LongForm   bool
	WeekTopics []string
}

// SabbatCrossPost is the long-form post on a sabbat day.
type SabbatCrossPost struct {
	Base
	Sabbat catalog.Sabbat
}

// SecondaryTheme is an extra short post drawn from a second theme.
type SecondaryTheme struct {
	Base
	PrimaryTheme string
}

// VideoScript is a short video script: the first line is the hook.
type VideoScript struct {
	Base
	Angle           string
	Aspect          string
	ContentCategory string
	Part            int
	TotalParts      int
}

// VideoCaption is the caption for a video post.
type VideoCaption struct {
	Base
	Hook       string
	Part       int
	TotalParts int
}

// OpeningLine asks for a single distinguishing first line.
type OpeningLine struct {
	Base
	Intent string
}

func (EducationalIntro) Kind() string { return KindEducationalIntro }
func (Question) Kind() string         { return KindQuestion }
func (ClosingRitual) Kind() string    { return KindClosingRitual }
func (SabbatCrossPost) Kind() string  { return KindSabbatCrossPost }
func (SecondaryTheme) Kind() string   { return KindSecondaryTheme }
func (VideoScript) Kind() string      { return KindVideoScript }
func (VideoCaption) Kind() string     { return KindVideoCaption }
func (OpeningLine) Kind() string      { return KindOpeningLine }

// Copy is generated post text plus its hashtags.
type Copy struct {
	Content  string
	Hashtags []string
}

// Generator proposes copy for a pack. instruction is empty on the first
// attempt and carries corrective guidance on retries.
type Generator interface {
	Generate(ctx context.Context, pack Pack, instruction string) (Copy, error)
}

// Validator lists what is wrong with content. No issues means valid.
type Validator interface {
	Validate(content string, pack Pack) []string
}

// FallbackBuilder produces deterministic copy. It cannot fail.
type FallbackBuilder interface {
	Build(pack Pack) Copy
}

// WithVariant returns a copy of p with Variant set.
func WithVariant(p Pack, variant int) Pack {
	switch v := p.(type) {
	case EducationalIntro:
		v.Variant = variant
		return v
	case Question:
		v.Variant = variant
		return v
	case ClosingRitual:
		v.Variant = variant
		return v
	case SabbatCrossPost:
		v.Variant = variant
		return v
	case SecondaryTheme:
		v.Variant = variant
		return v
	case VideoScript:
		v.Variant = variant
		return v
	case VideoCaption:
		v.Variant = variant
		return v
	case OpeningLine:
		v.Variant = variant
		return v
	}
	return p
}
