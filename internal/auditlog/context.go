package auditlog

import "context"

type ipKey struct{}

// WithIP attaches the caller's address so audit entries written further down
// the call chain can record it.
func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey{}, ip)
}

func IPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ipKey{}).(string)
	return ip
}

// Ptr returns a pointer to id for the optional Entry references.
func Ptr(id uint) *uint { return &id }
