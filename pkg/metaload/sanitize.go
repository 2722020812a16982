package metaload

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce  sync.Once
	labelPolicy *bluemonday.Policy
	descPolicy  *bluemonday.Policy
)

// sanitizeLabel strips all markup: labels render as plain text.
func sanitizeLabel(raw string) string {
	initPolicies()
	return strings.TrimSpace(labelPolicy.Sanitize(raw))
}

// sanitizeDescription keeps the small inline vocabulary descriptions are
// authored with and drops everything else.
func sanitizeDescription(raw string) string {
	initPolicies()
	return strings.TrimSpace(descPolicy.Sanitize(raw))
}

func initPolicies() {
	policyOnce.Do(func() {
		labelPolicy = bluemonday.StrictPolicy()

		policy := bluemonday.StrictPolicy()
		policy.AllowElements("b", "i", "em", "strong", "code", "br")
		policy.AllowAttrs("href").OnElements("a")
		policy.AllowStandardURLs()
		descPolicy = policy
	})
}
