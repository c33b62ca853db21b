// Package reply renders the assistant's answer for a classified intent.
//
// Replies use the markup subset understood by the presentation layer:
// "**bold**" spans, lines starting with "• " as bullets, and whole lines
// wrapped in "_" as emphasis.
package reply

import (
	"fmt"
	"strings"

	"github.com/soyeahso/annobot/internal/intent"
	"github.com/soyeahso/annobot/internal/task"
)

// DemoNote is appended to every annotation reply while no inference backend is wired.
const DemoNote = "_Note: This is a demo. In production, this would trigger the actual AI model._"

// Synthesize returns the reply for in given the current task configuration.
// It is deterministic in its inputs.
func Synthesize(in intent.Intent, cfg task.Config) string {
	switch v := in.(type) {
	case intent.DetectSegment:
		return detectSegment(v, cfg)
	case intent.TrackingQuery:
		return tracking(cfg)
	case intent.HelpQuery:
		return help()
	case intent.Fallback:
		return fallback(v, cfg)
	default:
		panic(fmt.Sprintf("reply: unhandled intent %T", in))
	}
}

func detectSegment(in intent.DetectSegment, cfg task.Config) string {
	typeLabel := cfg.AnnotationType.Label()
	tracking := "without tracking"
	if cfg.EnableTracking {
		tracking = "with tracking enabled"
	}

	var b strings.Builder
	b.WriteString("**Starting AI Annotation Task**\n\n")
	b.WriteString("**Configuration:**\n")
	bullet(&b, "Type: %s", typeLabel)
	bullet(&b, "Target: %s", in.Target)
	bullet(&b, "Range: %s", cfg.FrameRange())
	bullet(&b, "Tracking: %s", enabled(cfg.EnableTracking))
	if len(cfg.SelectedLabels) > 0 {
		bullet(&b, "Labels: %s", strings.Join(cfg.SelectedLabels, ", "))
	}
	b.WriteString("\n**Status:** Processing...\n\n")
	fmt.Fprintf(&b, "I'll analyze each frame and create %s annotations for \"%s\" %s.\n\n",
		strings.ToLower(typeLabel), in.Target, tracking)
	b.WriteString(DemoNote)
	return b.String()
}

func tracking(cfg task.Config) string {
	var b strings.Builder
	b.WriteString("**Tracking Configuration**\n\n")
	fmt.Fprintf(&b, "Tracking is currently **%s**.\n\n", enabled(cfg.EnableTracking))
	b.WriteString("When enabled, I'll:\n")
	bullet(&b, "Assign consistent IDs across frames")
	bullet(&b, "Link detections between consecutive frames")
	bullet(&b, "Maintain object identity throughout the sequence")
	b.WriteString("\nToggle the \"Enable Tracking\" setting to change this.")
	return b.String()
}

func help() string {
	var b strings.Builder
	b.WriteString("**How to Use AI Annotation**\n\n")
	b.WriteString("1. **Select annotation type** (bounding box, segmentation, etc.)\n")
	b.WriteString("2. **Set frame range** for batch processing\n")
	b.WriteString("3. **Enable tracking** if you want consistent IDs\n")
	b.WriteString("4. **Describe your task** in natural language\n\n")
	b.WriteString("**Example prompts:**\n")
	bullet(&b, "\"Segment all people in this video\"")
	bullet(&b, "\"Find and track all vehicles from frame 0 to 500\"")
	bullet(&b, "\"Detect cats and dogs with bounding boxes\"")
	b.WriteString("• \"Create polygon masks for all buildings\"")
	return b.String()
}

func fallback(in intent.Fallback, cfg task.Config) string {
	on := "Off"
	if cfg.EnableTracking {
		on = "On"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I understand you want to: \"%s\"\n\n", in.Original)
	b.WriteString("**Current settings:**\n")
	bullet(&b, "Annotation: %s", cfg.AnnotationType.Label())
	bullet(&b, "Frames: %s", cfg.FrameRange())
	bullet(&b, "Tracking: %s", on)
	b.WriteString("\nPlease be more specific about what objects you want me to detect/annotate.")
	return b.String()
}

func bullet(b *strings.Builder, format string, args ...any) {
	b.WriteString("• ")
	fmt.Fprintf(b, format, args...)
	b.WriteByte('\n')
}

func enabled(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
