package middlewares

import (
	"context"

	"github.com/dropDatabas3/orgauth/internal/auth"
)

type ctxKey string

const (
	ctxPrincipalKey ctxKey = "principal"
	ctxRequestIDKey ctxKey = "request_id"
	ctxClientIPKey  ctxKey = "client_ip"
)

// WithPrincipal inyecta la identidad autenticada en el contexto
func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey, p)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

func setClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxClientIPKey, ip)
}

func getClientIP(ctx context.Context) string {
	if s, ok := ctx.Value(ctxClientIPKey).(string); ok {
		return s
	}
	return ""
}

// GetPrincipal obtiene la identidad autenticada.
// Retorna nil si RequireAuth no se aplicó a la ruta.
func GetPrincipal(ctx context.Context) *auth.Principal {
	if p, ok := ctx.Value(ctxPrincipalKey).(*auth.Principal); ok {
		return p
	}
	return nil
}

// MustGetPrincipal obtiene la identidad o hace panic.
// Usar solo en handlers montados detrás de RequireAuth.
func MustGetPrincipal(ctx context.Context) *auth.Principal {
	p := GetPrincipal(ctx)
	if p == nil {
		panic("middlewares: no principal in context")
	}
	return p
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return s
	}
	return ""
}
