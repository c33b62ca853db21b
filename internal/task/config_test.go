package task

import (
	"testing"

	"github.com/soyeahso/annobot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, domain.AnnotationBoundingBox, cfg.AnnotationType)
	assert.False(t, cfg.EnableTracking)
	assert.Equal(t, 0, cfg.FrameStart)
	assert.Equal(t, 100, cfg.FrameEnd)
	assert.Empty(t, cfg.SelectedLabels)
	require.NoError(t, cfg.Validate())
}

func TestApply_IndependentFields(t *testing.T) {
	typ := domain.AnnotationPolygon
	on := true
	labels := []string{"1", "3"}

	cfg, err := Defaults().Apply(Patch{
		AnnotationType: &typ,
		EnableTracking: &on,
		SelectedLabels: &labels,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.AnnotationPolygon, cfg.AnnotationType)
	assert.True(t, cfg.EnableTracking)
	assert.Equal(t, []string{"1", "3"}, cfg.SelectedLabels)
	assert.Equal(t, 0, cfg.FrameStart)
	assert.Equal(t, 100, cfg.FrameEnd)
}

func TestApply_SelectedLabelsReplacedWholesale(t *testing.T) {
	first := []string{"a", "b"}
	cfg, err := Defaults().Apply(Patch{SelectedLabels: &first})
	require.NoError(t, err)

	second := []string{"c"}
	cfg, err = cfg.Apply(Patch{SelectedLabels: &second})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, cfg.SelectedLabels)

	// The caller's slice is not aliased.
	second[0] = "mutated"
	assert.Equal(t, []string{"c"}, cfg.SelectedLabels)

	var none []string
	cfg, err = cfg.Apply(Patch{SelectedLabels: &none})
	require.NoError(t, err)
	assert.NotNil(t, cfg.SelectedLabels)
	assert.Empty(t, cfg.SelectedLabels)
}

func TestApply_UnknownAnnotationTypeRejected(t *testing.T) {
	before := Defaults()
	bad := domain.AnnotationType("skeleton")
	on := true

	after, err := before.Apply(Patch{AnnotationType: &bad, EnableTracking: &on})
	require.ErrorIs(t, err, ErrUnknownAnnotationType)
	assert.Equal(t, before, after, "a rejected patch must leave the config untouched")
}

func TestApply_FrameClamping(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		patch      Patch
		wantStart  int
		wantEnd    int
	}{
		{
			name: "start within range", start: 0, end: 100,
			patch:     Patch{FrameStart: intPtr(10)},
			wantStart: 10, wantEnd: 100,
		},
		{
			name: "start past end drags end", start: 0, end: 100,
			patch:     Patch{FrameStart: intPtr(150)},
			wantStart: 150, wantEnd: 150,
		},
		{
			name: "end before start drags start", start: 40, end: 100,
			patch:     Patch{FrameEnd: intPtr(20)},
			wantStart: 20, wantEnd: 20,
		},
		{
			name: "negative start raised to zero", start: 5, end: 100,
			patch:     Patch{FrameStart: intPtr(-3)},
			wantStart: 0, wantEnd: 100,
		},
		{
			name: "negative end raised to zero", start: 5, end: 100,
			patch:     Patch{FrameEnd: intPtr(-1)},
			wantStart: 0, wantEnd: 0,
		},
		{
			name: "both written and ordered", start: 50, end: 100,
			patch:     Patch{FrameStart: intPtr(10), FrameEnd: intPtr(20)},
			wantStart: 10, wantEnd: 20,
		},
		{
			name: "both written and crossed, start wins", start: 0, end: 100,
			patch:     Patch{FrameStart: intPtr(60), FrameEnd: intPtr(30)},
			wantStart: 60, wantEnd: 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.FrameStart, cfg.FrameEnd = tt.start, tt.end

			got, err := cfg.Apply(tt.patch)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, got.FrameStart)
			assert.Equal(t, tt.wantEnd, got.FrameEnd)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestApply_InvariantHoldsOverSequences(t *testing.T) {
	writes := []Patch{
		{FrameStart: intPtr(30)},
		{FrameEnd: intPtr(10)},
		{FrameStart: intPtr(500)},
		{FrameEnd: intPtr(-20)},
		{FrameStart: intPtr(7), FrameEnd: intPtr(3)},
		{FrameEnd: intPtr(1000)},
		{FrameStart: intPtr(999)},
	}

	cfg := Defaults()
	for i, p := range writes {
		var err error
		cfg, err = cfg.Apply(p)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, cfg.FrameStart, 0, "step %d", i)
		assert.LessOrEqual(t, cfg.FrameStart, cfg.FrameEnd, "step %d", i)
	}
}

func TestPatchEmpty(t *testing.T) {
	assert.True(t, Patch{}.Empty())
	assert.False(t, Patch{FrameEnd: intPtr(1)}.Empty())
}

func TestBindJob(t *testing.T) {
	base := Defaults()
	base.EnableTracking = true

	cfg := base.BindJob(domain.Job{ID: "1", StartFrame: intPtr(10), StopFrame: intPtr(250)})
	assert.Equal(t, 10, cfg.FrameStart)
	assert.Equal(t, 250, cfg.FrameEnd)
	assert.True(t, cfg.EnableTracking, "job binding only touches frame bounds")

	cfg = base.BindJob(domain.Job{ID: "2"})
	assert.Equal(t, DefaultFrameStart, cfg.FrameStart)
	assert.Equal(t, DefaultFrameEnd, cfg.FrameEnd)

	cfg = base.BindJob(domain.Job{ID: "3", StartFrame: intPtr(300)})
	assert.Equal(t, 300, cfg.FrameStart)
	assert.Equal(t, 300, cfg.FrameEnd, "missing stop frame must not break ordering")
}

func TestFrameRange(t *testing.T) {
	cfg := Defaults()
	cfg.FrameStart, cfg.FrameEnd = 10, 50
	assert.Equal(t, "frames 10 to 50", cfg.FrameRange())
}

func TestClone_DoesNotAlias(t *testing.T) {
	cfg := Defaults()
	cfg.SelectedLabels = []string{"a"}
	snap := cfg.Clone()
	cfg.SelectedLabels[0] = "b"
	assert.Equal(t, []string{"a"}, snap.SelectedLabels)
}
