package mailAuth

import "context"

type clientIPContextKey struct{}
type baseURLContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The request limiters
// and audit events use it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithBaseURL attaches the externally visible scheme and host of the current
// request. Emailed links use it when Links.BaseURL is not configured.
func WithBaseURL(ctx context.Context, baseURL string) context.Context {
	return context.WithValue(ctx, baseURLContextKey{}, baseURL)
}

// ClientIPFromContext returns the IP stored by [WithClientIP], or "".
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// BaseURLFromContext returns the base URL stored by [WithBaseURL], or "".
func BaseURLFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	base, _ := ctx.Value(baseURLContextKey{}).(string)
	return base
}
