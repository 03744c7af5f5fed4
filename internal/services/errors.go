package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConversion    = errors.New("conversion failed")
	ErrArchiveTool   = errors.New("archive tool failure")
	ErrHash          = errors.New("hash compute failure")
	ErrSidecar       = errors.New("sidecar failure")
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
)

// Failure kinds reported in run statistics and history.
const (
	KindConversion = "conversion"
	KindArchive    = "archive"
	KindHash       = "hash"
	KindSidecar    = "sidecar"
	KindOther      = "other"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureKind maps a unit error to the label recorded for it. The first
// matching marker wins, so an archive failure caused by a tool error is
// still reported as archive.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrArchiveTool):
		return KindArchive
	case errors.Is(err, ErrHash):
		return KindHash
	case errors.Is(err, ErrSidecar):
		return KindSidecar
	case errors.Is(err, ErrConversion):
		return KindConversion
	default:
		return KindOther
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
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
