// Package intent maps free-text instructions to a small closed set of intents.
package intent

import (
	"regexp"
	"strings"
)

// Kind names an intent variant, mainly for logging.
type Kind string

const (
	KindDetectSegment Kind = "detect_segment"
	KindTracking      Kind = "tracking_query"
	KindHelp          Kind = "help_query"
	KindFallback      Kind = "fallback"
)

// Intent is the classified category of a user instruction. The set of
// implementations is closed: DetectSegment, TrackingQuery, HelpQuery, Fallback.
type Intent interface {
	Kind() Kind
	isIntent()
}

// DetectSegment asks for objects to be detected, segmented or annotated.
type DetectSegment struct {
	Target string
}

// TrackingQuery asks about tracking across frames.
type TrackingQuery struct{}

// HelpQuery asks how to use the assistant.
type HelpQuery struct{}

// Fallback is anything else. Original holds the user's text verbatim.
type Fallback struct {
	Original string
}

func (DetectSegment) Kind() Kind { return KindDetectSegment }
func (TrackingQuery) Kind() Kind { return KindTracking }
func (HelpQuery) Kind() Kind     { return KindHelp }
func (Fallback) Kind() Kind      { return KindFallback }

func (DetectSegment) isIntent() {}
func (TrackingQuery) isIntent() {}
func (HelpQuery) isIntent()     {}
func (Fallback) isIntent()      {}

// DefaultTarget is used when no object can be extracted from the text.
const DefaultTarget = "objects"

var (
	detectKeywords   = []string{"detect", "find", "segment", "annotate"}
	trackingKeywords = []string{"track"}
	helpKeywords     = []string{"help", "how"}
)

// targetRe captures the word after an action keyword, skipping "all"/"the".
var targetRe = regexp.MustCompile(`(?:detect|find|segment|annotate)\s+(?:all\s+)?(?:the\s+)?(\w+)`)

// connectives are captures that chain actions ("detect and segment ...")
// rather than name an object.
var connectives = map[string]bool{
	"and":  true,
	"or":   true,
	"then": true,
}

// Classify returns the intent for text. Rules are checked in priority order
// (detect/segment, tracking, help) and the first match wins.
func Classify(text string) Intent {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, detectKeywords):
		return DetectSegment{Target: extractTarget(lower)}
	case containsAny(lower, trackingKeywords):
		return TrackingQuery{}
	case containsAny(lower, helpKeywords):
		return HelpQuery{}
	default:
		return Fallback{Original: text}
	}
}

// extractTarget returns the first captured word that is not a connective.
func extractTarget(lower string) string {
	for _, m := range targetRe.FindAllStringSubmatch(lower, -1) {
		if w := m[1]; !connectives[w] {
			return w
		}
	}
	return DefaultTarget
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
