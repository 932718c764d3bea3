package utils

import "github.com/microcosm-cc/bluemonday"

var (
	contentPolicy = bluemonday.UGCPolicy()
	textPolicy    = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS, keeping user-generated markup.
func Sanitize(input string) string {
	return contentPolicy.Sanitize(input)
}

// SanitizeText strips all markup; used for titles and excerpts.
func SanitizeText(input string) string {
	return textPolicy.Sanitize(input)
}
