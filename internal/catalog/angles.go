package catalog

const (
	AngleMisconception   = "Misconception"
	AngleFeltExperience  = "Felt experience"
	AnglePracticalRitual = "Practical ritual"
	AngleTiming          = "Timing"
	AngleComparison      = "Comparison"
	AngleOriginStory     = "Origin story"
	AngleQuickReference  = "Quick reference"
)

// Angles is the canonical rhetorical angle list, in selection order.
var Angles = []string{
	AngleMisconception,
	AngleFeltExperience,
	AnglePracticalRitual,
	AngleTiming,
	AngleComparison,
	AngleOriginStory,
	AngleQuickReference,
}

const (
	AspectCoreMeaning    = "core meaning"
	AspectPractical      = "practical application"
	AspectEmotional      = "emotional impact"
	AspectHistory        = "history"
	AspectCommonMistakes = "common mistakes"
)

var angleAspects = map[string]string{
	AngleMisconception:   AspectCommonMistakes,
	AngleFeltExperience:  AspectEmotional,
	AnglePracticalRitual: AspectPractical,
	AngleTiming:          AspectPractical,
	AngleComparison:      AspectCoreMeaning,
	AngleOriginStory:     AspectHistory,
	AngleQuickReference:  AspectCoreMeaning,
}

// AspectForAngle maps an angle to the content dimension it emphasizes.
// Unknown angles map to core meaning.
func AspectForAngle(angle string) string {
	if a, ok := angleAspects[angle]; ok {
		return a
	}
	return AspectCoreMeaning
}
