package reply

import (
	"strings"
	"testing"

	"github.com/soyeahso/annobot/internal/domain"
	"github.com/soyeahso/annobot/internal/intent"
	"github.com/soyeahso/annobot/internal/task"
	"github.com/stretchr/testify/assert"
)

func testConfig() task.Config {
	cfg := task.Defaults()
	cfg.FrameStart = 10
	cfg.FrameEnd = 50
	return cfg
}

func TestSynthesize_DetectSegment(t *testing.T) {
	cfg := testConfig()
	cfg.AnnotationType = domain.AnnotationMask
	cfg.EnableTracking = true

	out := Synthesize(intent.DetectSegment{Target: "dogs"}, cfg)

	assert.True(t, strings.HasPrefix(out, "**Starting AI Annotation Task**\n"))
	assert.Contains(t, out, "• Type: Segmentation Mask\n")
	assert.Contains(t, out, "• Target: dogs\n")
	assert.Contains(t, out, "• Range: frames 10 to 50\n")
	assert.Contains(t, out, "• Tracking: enabled\n")
	assert.Contains(t, out, `create segmentation mask annotations for "dogs" with tracking enabled.`)
	assert.True(t, strings.HasSuffix(out, DemoNote))
	assert.NotContains(t, out, "Labels:")
}

func TestSynthesize_DetectSegmentWithoutTracking(t *testing.T) {
	out := Synthesize(intent.DetectSegment{Target: "cats"}, testConfig())

	assert.Contains(t, out, "• Type: Bounding Box\n")
	assert.Contains(t, out, "• Tracking: disabled\n")
	assert.Contains(t, out, `"cats" without tracking.`)
}

func TestSynthesize_DetectSegmentLabels(t *testing.T) {
	cfg := testConfig()
	cfg.SelectedLabels = []string{"3", "9"}

	out := Synthesize(intent.DetectSegment{Target: "cars"}, cfg)
	assert.Contains(t, out, "• Labels: 3, 9\n")
}

func TestSynthesize_Tracking(t *testing.T) {
	cfg := testConfig()
	out := Synthesize(intent.TrackingQuery{}, cfg)
	assert.Contains(t, out, "Tracking is currently **disabled**.")
	assert.Contains(t, out, "• Assign consistent IDs across frames\n")

	cfg.EnableTracking = true
	out = Synthesize(intent.TrackingQuery{}, cfg)
	assert.Contains(t, out, "Tracking is currently **enabled**.")
}

func TestSynthesize_HelpIgnoresConfig(t *testing.T) {
	a := Synthesize(intent.HelpQuery{}, task.Defaults())

	cfg := testConfig()
	cfg.EnableTracking = true
	cfg.AnnotationType = domain.AnnotationEllipse
	b := Synthesize(intent.HelpQuery{}, cfg)

	assert.Equal(t, a, b)
	assert.Contains(t, a, "**How to Use AI Annotation**")
	assert.Contains(t, a, "**Example prompts:**")
}

func TestSynthesize_Fallback(t *testing.T) {
	cfg := testConfig()
	cfg.EnableTracking = true

	out := Synthesize(intent.Fallback{Original: "what is this tool"}, cfg)

	assert.True(t, strings.HasPrefix(out, `I understand you want to: "what is this tool"`))
	assert.Contains(t, out, "• Annotation: Bounding Box\n")
	assert.Contains(t, out, "• Frames: frames 10 to 50\n")
	assert.Contains(t, out, "• Tracking: On\n")
	assert.Contains(t, out, "Please be more specific")
}

func TestSynthesize_Deterministic(t *testing.T) {
	cfg := testConfig()
	for _, in := range []intent.Intent{
		intent.DetectSegment{Target: "x"},
		intent.TrackingQuery{},
		intent.HelpQuery{},
		intent.Fallback{Original: "y"},
	} {
		assert.Equal(t, Synthesize(in, cfg), Synthesize(in, cfg))
	}
}

func TestSynthesize_NoUnbalancedBold(t *testing.T) {
	cfg := testConfig()
	for _, in := range []intent.Intent{
		intent.DetectSegment{Target: "x"},
		intent.TrackingQuery{},
		intent.HelpQuery{},
		intent.Fallback{Original: "y"},
	} {
		for _, line := range strings.Split(Synthesize(in, cfg), "\n") {
			assert.Equal(t, 0, strings.Count(line, "**")%2, "unbalanced bold in %q", line)
		}
	}
}
