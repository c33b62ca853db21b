// Package task holds the parameters of a prospective annotation request.
package task

import (
	"errors"
	"fmt"
	"slices"

	"github.com/soyeahso/annobot/internal/domain"
)

// Default frame bounds used when a job does not report its own.
const (
	DefaultFrameStart = 0
	DefaultFrameEnd   = 100
)

// ErrUnknownAnnotationType is returned when a patch names an unsupported type.
var ErrUnknownAnnotationType = errors.New("unknown annotation type")

// Config describes the annotation request being prepared.
// Invariant: 0 <= FrameStart <= FrameEnd.
type Config struct {
	AnnotationType domain.AnnotationType `json:"annotationType"`
	EnableTracking bool                  `json:"enableTracking"`
	FrameStart     int                   `json:"frameStart"`
	FrameEnd       int                   `json:"frameEnd"`
	// SelectedLabels filters the request to these label IDs; empty means all labels.
	SelectedLabels []string `json:"selectedLabels"`
}

// Defaults returns the configuration a new session starts with.
func Defaults() Config {
	return Config{
		AnnotationType: domain.AnnotationBoundingBox,
		FrameStart:     DefaultFrameStart,
		FrameEnd:       DefaultFrameEnd,
		SelectedLabels: []string{},
	}
}

// Clone returns a deep copy so callers can hold a snapshot.
func (c Config) Clone() Config {
	c.SelectedLabels = slices.Clone(c.SelectedLabels)
	if c.SelectedLabels == nil {
		c.SelectedLabels = []string{}
	}
	return c
}

// FrameRange formats the bounds as "frames N to M".
func (c Config) FrameRange() string {
	return fmt.Sprintf("frames %d to %d", c.FrameStart, c.FrameEnd)
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	AnnotationType *domain.AnnotationType `json:"annotationType,omitempty"`
	EnableTracking *bool                  `json:"enableTracking,omitempty"`
	FrameStart     *int                   `json:"frameStart,omitempty"`
	FrameEnd       *int                   `json:"frameEnd,omitempty"`
	SelectedLabels *[]string              `json:"selectedLabels,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.AnnotationType == nil && p.EnableTracking == nil &&
		p.FrameStart == nil && p.FrameEnd == nil && p.SelectedLabels == nil
}

// Apply returns c with the patch applied. An unknown annotation type rejects
// the whole patch and c is returned unchanged.
//
// Frame bounds are never rejected. Negative values are raised to zero, and a
// bound that would cross the other one drags the other one along: the field
// being written wins. When both bounds are written and they cross,
// FrameStart wins.
func (c Config) Apply(p Patch) (Config, error) {
	if p.AnnotationType != nil && !p.AnnotationType.Valid() {
		return c, fmt.Errorf("%w: %q", ErrUnknownAnnotationType, *p.AnnotationType)
	}

	next := c.Clone()
	if p.AnnotationType != nil {
		next.AnnotationType = *p.AnnotationType
	}
	if p.EnableTracking != nil {
		next.EnableTracking = *p.EnableTracking
	}
	if p.SelectedLabels != nil {
		next.SelectedLabels = slices.Clone(*p.SelectedLabels)
		if next.SelectedLabels == nil {
			next.SelectedLabels = []string{}
		}
	}
	if p.FrameEnd != nil {
		next = next.withFrameEnd(*p.FrameEnd)
	}
	if p.FrameStart != nil {
		next = next.withFrameStart(*p.FrameStart)
	}
	return next, nil
}

func (c Config) withFrameStart(v int) Config {
	c.FrameStart = max(v, 0)
	if c.FrameStart > c.FrameEnd {
		c.FrameEnd = c.FrameStart
	}
	return c
}

func (c Config) withFrameEnd(v int) Config {
	c.FrameEnd = max(v, 0)
	if c.FrameEnd < c.FrameStart {
		c.FrameStart = c.FrameEnd
	}
	return c
}

// BindJob overwrites the frame bounds with the job's start/stop frames,
// falling back to the defaults for bounds the job does not report.
func (c Config) BindJob(job domain.Job) Config {
	start, end := DefaultFrameStart, DefaultFrameEnd
	if job.StartFrame != nil {
		start = *job.StartFrame
	}
	if job.StopFrame != nil {
		end = *job.StopFrame
	}

	next := c.Clone()
	next.FrameStart = max(start, 0)
	next.FrameEnd = max(end, next.FrameStart)
	return next
}

// Validate reports whether c satisfies the config invariants.
func (c Config) Validate() error {
	if !c.AnnotationType.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAnnotationType, c.AnnotationType)
	}
	if c.FrameStart < 0 {
		return fmt.Errorf("frameStart must be >= 0, got %d", c.FrameStart)
	}
	if c.FrameStart > c.FrameEnd {
		return fmt.Errorf("frameStart (%d) must not exceed frameEnd (%d)", c.FrameStart, c.FrameEnd)
	}
	return nil
}
