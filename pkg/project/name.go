package project

import "strings"

// maxNameRunes is the longest display name before truncation.
const maxNameRunes = 30

// DisplayName decodes a project directory name for display.
//
// Names starting with '-' or '_' are path-encoded; the last non-empty
// segment is used. Results longer than 30 runes are cut to 27 and
// suffixed with "...".
func DisplayName(dir string) string {
	name := dir
	if strings.HasPrefix(dir, "-") || strings.HasPrefix(dir, "_") {
		sep := dir[:1]
		segments := strings.Split(strings.TrimRight(dir, sep), sep)
		if last := segments[len(segments)-1]; last != "" {
			name = last
		}
	}
	return Truncate(name, maxNameRunes)
}

// Truncate shortens s to at most limit runes, marking the cut with "...".
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
