package review

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Sanitize strips markup from server supplied text and returns it as plain
// text for the terminal.
func Sanitize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	cleaned := policy.Sanitize(trimmed)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
