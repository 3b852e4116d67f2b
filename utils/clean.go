package utils

import (
	"regexp"
	"strings"
)

var (
	unsafePathRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
	separatorRe  = regexp.MustCompile(`[ /]+`)
)

func CleanDirName(input string) string {
	cleaned := unsafePathRe.ReplaceAllString(input, "_")

	cleaned = strings.TrimSpace(cleaned)

	return cleaned
}

// StoryFileName returns "{title} by {author}.epub" with every run of spaces
// or slashes collapsed into a single dash.
func StoryFileName(title, author string) string {
	return separatorRe.ReplaceAllString(title+" by "+author+".epub", "-")
}
