package pipeline_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"sprocket/internal/pipeline"
)

func TestWrapTagsMarkerAndContext(t *testing.T) {
	inner := errors.New("value 'abc' does not match pattern '^\\d+$'")
	err := pipeline.Wrap(pipeline.ErrValidation, "csv", "coerce row", "column 'Frame Start'", inner)

	if !errors.Is(err, pipeline.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !errors.Is(err, inner) {
		t.Fatal("expected inner error to survive wrapping")
	}
	if !strings.Contains(err.Error(), "csv: coerce row: column 'Frame Start'") {
		t.Fatalf("missing context detail: %v", err)
	}
}

func TestExitCodeClassification(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{pipeline.Wrap(pipeline.ErrSchema, "config", "load", "duplicate column", nil), 2},
		{pipeline.Wrap(pipeline.ErrConfiguration, "config", "load", "", nil), 2},
		{pipeline.Wrap(pipeline.ErrValidation, "csv", "row 3", "", nil), 3},
		{pipeline.Wrap(pipeline.ErrDuplicateFile, "csv", "", "", nil), 3},
		{pipeline.Wrap(pipeline.ErrMissingEntity, "csv", "", "", nil), 4},
		{errors.New("disk on fire"), 1},
	}
	for i, tc := range cases {
		if got := pipeline.ExitCode(tc.err); got != tc.want {
			t.Errorf("case %d: got %d want %d", i, got, tc.want)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := pipeline.Wrap(nil, "", "", "", fmt.Errorf("boom"))
	if !errors.Is(err, pipeline.ErrValidation) {
		t.Fatalf("expected default marker, got %v", err)
	}
}
