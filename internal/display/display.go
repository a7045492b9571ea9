// Package display holds the text helpers used when rendering exams in the web UI and the CLI.
package display

import (
	"maps"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	// Ellipsis is appended to truncated text.
	Ellipsis = "..."

	// ShortNameLen is the number of characters kept by ShortName.
	ShortNameLen = 12
	// ShortDescriptionLen is the number of characters kept by ShortDescription.
	ShortDescriptionLen = 50
)

// Truncate returns the first n characters of s followed by Ellipsis when s is longer than n
// characters, and s unchanged otherwise. Characters are runes: a combining sequence or a
// multi-rune emoji that straddles the limit is split.
// n <= 0 disables truncation.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + Ellipsis
}

// ShortName shortens exam titles and author names for compact lists.
func ShortName(s string) string {
	return Truncate(s, ShortNameLen)
}

// ShortDescription shortens exam descriptions for list rows.
func ShortDescription(s string) string {
	return Truncate(s, ShortDescriptionLen)
}

// TimeAgo renders t relative to now ("3 hours ago"). The zero time renders as "".
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// Keys returns the keys of an opaque record in sorted order.
func Keys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
