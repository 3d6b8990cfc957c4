package store

import (
	"strings"

	"github.com/brunoscheufler/inkwell/constants"
)

// NormalizeHashtags strips a leading '#' and surrounding whitespace from
// each tag, drops blanks and case-insensitive duplicates (first spelling
// wins) and rejects more than constants.MaxHashtags tags. The result is
// never nil.
func NormalizeHashtags(tags []string) ([]string, error) {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(tag), "#"))
		if tag == "" {
			continue
		}
		if containsFold(normalized, tag) {
			continue
		}
		normalized = append(normalized, tag)
	}

	if len(normalized) > constants.MaxHashtags {
		return nil, ErrTooManyHashtags
	}
	return normalized, nil
}

func containsFold(values []string, v string) bool {
	for _, existing := range values {
		if strings.EqualFold(existing, v) {
			return true
		}
	}
	return false
}
