package domain

import (
	"fmt"
	"strings"
)

// AnnotationType is the geometry an annotation request produces.
type AnnotationType string

const (
	AnnotationBoundingBox AnnotationType = "rectangle"
	AnnotationPolygon     AnnotationType = "polygon"
	AnnotationMask        AnnotationType = "mask"
	AnnotationPolyline    AnnotationType = "polyline"
	AnnotationPoints      AnnotationType = "points"
	AnnotationEllipse     AnnotationType = "ellipse"
)

// AnnotationTypes lists every supported annotation type in display order.
var AnnotationTypes = []AnnotationType{
	AnnotationBoundingBox,
	AnnotationPolygon,
	AnnotationMask,
	AnnotationPolyline,
	AnnotationPoints,
	AnnotationEllipse,
}

var annotationLabels = map[AnnotationType]string{
	AnnotationBoundingBox: "Bounding Box",
	AnnotationPolygon:     "Polygon",
	AnnotationMask:        "Segmentation Mask",
	AnnotationPolyline:    "Polyline",
	AnnotationPoints:      "Points",
	AnnotationEllipse:     "Ellipse",
}

// Valid reports whether t is one of the supported annotation types.
func (t AnnotationType) Valid() bool {
	_, ok := annotationLabels[t]
	return ok
}

// Label returns the human-readable name, e.g. "Bounding Box".
// Unknown types fall back to their raw value.
func (t AnnotationType) Label() string {
	if l, ok := annotationLabels[t]; ok {
		return l
	}
	return string(t)
}

// ParseAnnotationType accepts either the wire value ("rectangle") or the
// display label ("Bounding Box"), case-insensitively.
func ParseAnnotationType(s string) (AnnotationType, error) {
	for _, t := range AnnotationTypes {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, t.Label()) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown annotation type %q", s)
}
