package organizer

import "strings"

// SplitCategoryPath splits a delimited category path ("Technology/Programming")
// into trimmed, non-empty segments.
func SplitCategoryPath(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		segment = strings.TrimSpace(segment)
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// NormalizeCategoryPath re-joins the trimmed segments of a path. Two paths
// are equal iff their normalized forms are equal; folder titles are compared
// exactly, so no case folding happens here.
func NormalizeCategoryPath(path string) string {
	return strings.Join(SplitCategoryPath(path), "/")
}

// CategoryDepth returns the number of segments in a path.
func CategoryDepth(path string) int {
	return len(SplitCategoryPath(path))
}
