package authcore

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the caller's network address to ctx. The engine uses
// it for per-IP rate limiting and audit events. Absent an address, IP-keyed
// counters are skipped and identifier-keyed counters still apply.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
