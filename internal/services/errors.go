package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool    = errors.New("external tool error")
	ErrToolUnavailable = errors.New("external tool unavailable")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrIO              = errors.New("io error")
	ErrConfiguration   = errors.New("configuration error")
	ErrTimeout         = errors.New("timeout")
)

// Error kinds recorded in run reports.
const (
	KindValidation   = "validation"
	KindCapability   = "capability"
	KindUnavailable  = "unavailable"
	KindConflict     = "conflict"
	KindIO           = "io"
	KindConfig       = "configuration"
	KindTimeout      = "timeout"
	KindCancelled    = "cancelled"
	KindUnclassified = "unknown"
)

// Wrap builds an error message that includes operation context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, operation, step, message string, err error) error {
	detail := buildDetail(operation, step, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to the short classification stored with each outcome.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrToolUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrExternalTool):
		return KindCapability
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrIO):
		return KindIO
	case errors.Is(err, ErrConfiguration):
		return KindConfig
	default:
		return KindUnclassified
	}
}

func buildDetail(operation, step, message string) string {
	parts := make([]string, 0, 3)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if step = strings.TrimSpace(step); step != "" {
		parts = append(parts, step)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
