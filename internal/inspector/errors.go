package inspector

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAllocation reports a script buffer that could not be built.
	ErrAllocation = errors.New("allocation failure")
	// ErrInvalidState reports a call made on a closed session, with invalid
	// arguments, or before a required prior call.
	ErrInvalidState = errors.New("invalid state")
	// ErrRasterizerParse reports a script the renderer rejected.
	ErrRasterizerParse = errors.New("rasterizer parse failure")
)

// wrap tags err with marker and the operation that failed so callers can
// classify it with errors.Is.
func wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "session failure"
	}
	return strings.Join(parts, ": ")
}
