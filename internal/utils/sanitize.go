// internal/utils/sanitize.go
package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var descriptionPolicy = newDescriptionPolicy()

func newDescriptionPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
}

// SanitizeHTML strips scripts, handlers and unknown markup from catalogue descriptions.
func SanitizeHTML(input string) string {
	return strings.TrimSpace(descriptionPolicy.Sanitize(input))
}
