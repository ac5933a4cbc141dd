package model

import "strings"

// NoCategory is the display label for tasks without a category.
const NoCategory = "Uncategorized"

// CategoryLabel returns the display label for a category value.
func CategoryLabel(name string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return NoCategory
}
