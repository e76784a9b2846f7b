package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const (
	tokenPrefixKey  contextKey = "token_prefix"
	prefixHolderKey contextKey = "prefix_holder"
)

// prefixHolder lets Logger see a prefix set by middleware it wraps.
type prefixHolder struct {
	prefix string
}

func withPrefixHolder(ctx context.Context, h *prefixHolder) context.Context {
	return context.WithValue(ctx, prefixHolderKey, h)
}

// heldPrefix reads the prefix recorded further down the chain, if Logger
// is wrapping this request.
func heldPrefix(r *http.Request) string {
	if h, ok := r.Context().Value(prefixHolderKey).(*prefixHolder); ok {
		return h.prefix
	}
	return ""
}

// SetTokenPrefix records which webhook token authenticated the request.
func SetTokenPrefix(ctx context.Context, prefix string) context.Context {
	if h, ok := ctx.Value(prefixHolderKey).(*prefixHolder); ok {
		h.prefix = prefix
	}
	return context.WithValue(ctx, tokenPrefixKey, prefix)
}

// TokenPrefix returns the authenticated token prefix, if any.
func TokenPrefix(r *http.Request) (string, bool) {
	prefix, ok := r.Context().Value(tokenPrefixKey).(string)
	return prefix, ok
}
