package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for ingest failure classification. Callers wrap concrete
// failures with one of these so exit codes and batch policies can be decided
// without string matching.
var (
	// ErrSchema flags malformed column or representation configuration.
	// Raised at settings load, never during row processing.
	ErrSchema = errors.New("schema error")
	// ErrValidation flags a row or value failing coercion or pattern match.
	ErrValidation = errors.New("validation error")
	// ErrMissingEntity flags a referenced folder or task that does not exist
	// while hierarchy creation is disabled.
	ErrMissingEntity = errors.New("missing entity")
	// ErrDuplicateFile flags two representation rows resolving to the same
	// absolute filepath within one product.
	ErrDuplicateFile = errors.New("duplicate file")
	// ErrFfprobe flags media metadata that could not be inspected.
	ErrFfprobe = errors.New("ffprobe error")
	// ErrConfiguration flags unusable runtime configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps an ingest error to the process exit code of the CLI.
// Validation-shaped failures get distinct codes so wrapper scripts can route
// manifest fixes separately from infrastructure problems.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrSchema), errors.Is(err, ErrConfiguration):
		return 2
	case errors.Is(err, ErrValidation), errors.Is(err, ErrDuplicateFile):
		return 3
	case errors.Is(err, ErrMissingEntity):
		return 4
	default:
		return 1
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "ingest failure"
	}
	return strings.Join(parts, ": ")
}
