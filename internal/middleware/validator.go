package middleware

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxQuestionLength = 4000
	MaxDatasetName    = 255
	MaxUploadBytes    = 20 << 20
)

var (
	idPattern      = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,128}$`)
	datasetPattern = regexp.MustCompile(`^[a-fA-F0-9-]{36}$`)
)

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateOwnerID allows alphanumeric, dash and underscore, max 128 chars.
func ValidateOwnerID(owner string) error {
	if owner == "" {
		return fmt.Errorf("owner ID cannot be empty")
	}
	if !idPattern.MatchString(owner) {
		return fmt.Errorf("invalid owner ID format (alphanumeric, dash, underscore only, max 128 chars)")
	}
	return nil
}

// ValidateSessionID uses the same rules as owner ids.
func ValidateSessionID(session string) error {
	if session == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	if !idPattern.MatchString(session) {
		return fmt.Errorf("invalid session ID format")
	}
	return nil
}

// ValidateDatasetIDs accepts uuids and the "all" sentinel.
func ValidateDatasetIDs(ids []string) error {
	for _, id := range ids {
		if strings.EqualFold(id, "all") {
			continue
		}
		if !datasetPattern.MatchString(id) {
			return fmt.Errorf("invalid dataset ID: %q", id)
		}
	}
	return nil
}

// ValidateQuestion checks a sanitized question.
func ValidateQuestion(q string) error {
	if q == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if utf8.RuneCountInString(q) > MaxQuestionLength {
		return fmt.Errorf("question too long (max %d characters)", MaxQuestionLength)
	}
	return nil
}

// ValidateDatasetName allows an empty name (the file name is used instead).
func ValidateDatasetName(name string) error {
	if utf8.RuneCountInString(name) > MaxDatasetName {
		return fmt.Errorf("dataset name too long (max %d characters)", MaxDatasetName)
	}
	return nil
}
