package cache

import "fmt"

func RunSummaryKey(runID string) string {
	return fmt.Sprintf("projectlens:run:%s", runID)
}

// RateLimitKey scopes a rate-limit counter to a webhook token prefix.
func RateLimitKey(tokenPrefix string) string {
	return fmt.Sprintf("projectlens:ratelimit:%s", tokenPrefix)
}
