package middlewares

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/dropDatabas3/orgauth/internal/auth"
	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	"github.com/dropDatabas3/orgauth/internal/http/errors"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
	"github.com/dropDatabas3/orgauth/internal/permission"
)

// maxTokenBody acota cuánto body se lee buscando el campo "token".
const maxTokenBody = 64 << 10

// Authenticator es lo que RequireAuth necesita del core de auth.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*auth.Principal, error)
	ResolvePermissions(ctx context.Context, identity *repository.Identity) permission.Set
}

// ExtractToken busca el access token en este orden: header
// Authorization: Bearer, cookie cookieName y campo "token" de un body JSON.
// El body queda intacto para el handler.
func ExtractToken(r *http.Request, cookieName string) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			if tok := strings.TrimSpace(h[7:]); tok != "" {
				return tok
			}
		}
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && strings.TrimSpace(c.Value) != "" {
			return strings.TrimSpace(c.Value)
		}
	}
	return tokenFromBody(r)
}

func tokenFromBody(r *http.Request) string {
	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead ||
		!strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	buf, err := io.ReadAll(io.LimitReader(r.Body, maxTokenBody+1))
	rest := r.Body
	// Se repone lo leído seguido de lo que quede sin leer
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf), rest), rest}
	if err != nil || len(buf) > maxTokenBody {
		return ""
	}

	var body struct {
		Token string `json:"token"`
	}
	if json.Unmarshal(buf, &body) != nil {
		return ""
	}
	return strings.TrimSpace(body.Token)
}

// RequireAuth autentica el request. Si pasa, deja en el contexto el
// Principal y el conjunto de permisos (resuelto la primera vez que se usa).
// Los rechazos responden 401/403 con el código del motivo, sin reintento.
func RequireAuth(a Authenticator, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, err := a.Authenticate(ctx, ExtractToken(r, cookieName))
			if err != nil {
				if !auth.IsTokenRejection(err) {
					logger.From(ctx).Error("authentication failed", logger.Err(err))
				}
				errors.WriteError(w, err)
				return
			}

			log := logger.From(ctx).With(
				logger.IdentityID(p.Identity.ID),
				logger.OrgID(p.Identity.OrganizationID),
				logger.DeviceID(p.DeviceID),
			)
			ctx = logger.ToContext(ctx, log)
			ctx = WithPrincipal(ctx, p)
			identity := p.Identity
			ctx = permission.WithLazy(ctx, func(c context.Context) permission.Set {
				return a.ResolvePermissions(c, identity)
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
