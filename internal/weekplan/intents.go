package weekplan

// Opening intents for the distinguishing first line of educational posts.
const (
	IntentDefine      = "define"
	IntentContrast    = "contrast"
	IntentQuestion    = "question"
	IntentObservation = "observation"
	IntentMyth        = "myth"
	IntentScene       = "scene"
)

// OpeningIntents is the fixed round-robin order.
var OpeningIntents = []string{
	IntentDefine,
	IntentContrast,
	IntentQuestion,
	IntentObservation,
	IntentMyth,
	IntentScene,
}

// IntentRotation hands out opening intents per topic for one week. A topic
// does not see the same intent twice until every intent has been used.
// Not safe for concurrent use.
type IntentRotation struct {
	next map[string]int
}

// NewIntentRotation creates an empty rotation.
func NewIntentRotation() *IntentRotation {
	return &IntentRotation{next: make(map[string]int)}
}

// Next returns the next intent for topic.
func (r *IntentRotation) Next(topic string) string {
	i := r.next[topic]
	r.next[topic] = i + 1
	return OpeningIntents[i%len(OpeningIntents)]
}
