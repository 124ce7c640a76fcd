// internal/reqctx/reqctx.go
package reqctx

import "context"

type key int

const (
	keyRequestID key = iota
	keyAdmin
	keyRole
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

func GetRequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRequestID).(string)
	return v, ok
}

// WithAdmin кладёт в контекст username из JWT (sub) и роль.
func WithAdmin(ctx context.Context, username, role string) context.Context {
	ctx = context.WithValue(ctx, keyAdmin, username)
	return context.WithValue(ctx, keyRole, role)
}

func GetAdmin(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyAdmin).(string)
	return v, ok
}

func GetRole(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRole).(string)
	return v, ok
}
