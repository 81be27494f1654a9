package services

import (
	"regexp"
	"strings"
)

var spaceRun = regexp.MustCompile(`\s+`)

func CleanSearchTerm(term string) string {
	return spaceRun.ReplaceAllString(strings.TrimSpace(term), " ")
}

func NormalizeRequired(value, message string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ErrBadRequest(message)
	}
	return trimmed, nil
}

func optionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
