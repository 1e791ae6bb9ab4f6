// Package app arma el servicio completo a partir de la configuración:
// storage, cache de roles, core de auth, rate limiting, métricas y router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/orgauth/internal/auth"
	"github.com/dropDatabas3/orgauth/internal/bootstrap"
	"github.com/dropDatabas3/orgauth/internal/cache"
	"github.com/dropDatabas3/orgauth/internal/config"
	"github.com/dropDatabas3/orgauth/internal/email"
	adminctrl "github.com/dropDatabas3/orgauth/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/orgauth/internal/http/controllers/auth"
	"github.com/dropDatabas3/orgauth/internal/http/controllers/health"
	"github.com/dropDatabas3/orgauth/internal/http/helpers"
	"github.com/dropDatabas3/orgauth/internal/http/router"
	jwtx "github.com/dropDatabas3/orgauth/internal/jwt"
	"github.com/dropDatabas3/orgauth/internal/metrics"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
	"github.com/dropDatabas3/orgauth/internal/permission"
	"github.com/dropDatabas3/orgauth/internal/rate"
	"github.com/dropDatabas3/orgauth/internal/security/password"
	"github.com/dropDatabas3/orgauth/internal/session"
	"github.com/dropDatabas3/orgauth/internal/store"
	"github.com/dropDatabas3/orgauth/internal/store/pg"
	redisstore "github.com/dropDatabas3/orgauth/internal/store/redis"
)

// Version se completa con -ldflags en el build.
var Version = "dev"

// App es el servicio armado.
type App struct {
	Handler http.Handler
	Auth    *auth.Service
	Repos   *store.Repositories

	cfg     *config.Config
	closers []func() error
}

// Options ajusta el armado (tests).
type Options struct {
	// PasswordParams pisa password.Default (ej: password.Fast en tests).
	PasswordParams password.Params
	// DisableMetrics no registra collectors ni expone /metrics.
	DisableMetrics bool
}

// Build arma el servicio. Ante error cierra lo que haya abierto.
func Build(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	log := logger.From(ctx).With(logger.Layer("app"))
	a := &App{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	// ─── Storage ───
	repos, err := store.Open(ctx, store.Config{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN,
		Postgres: pg.PoolConfig{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: config.Duration(cfg.Storage.Postgres.ConnMaxLifetime),
		},
		SessionsDriver: cfg.Storage.SessionsDriver,
		Redis: redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.Repos = repos
	a.closers = append(a.closers, repos.Close)
	log.Info("store opened", logger.String("driver", repos.Driver))

	// ─── Cache de roles ───
	roleTTL := config.Duration(cfg.Cache.RoleTTL)
	rc, err := cache.New(cache.Config{
		Driver:     cfg.Cache.Kind,
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		Prefix:     cfg.Redis.Prefix + ":cache:",
		DefaultTTL: roleTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	a.closers = append(a.closers, rc.Close)
	roles := permission.NewCachedRoles(repos.Roles, rc, roleTTL)

	// ─── Core ───
	codec, err := jwtx.NewCodec(cfg.JWT.Secret, cfg.JWT.Issuer, config.Duration(cfg.JWT.AccessTTL))
	if err != nil {
		return nil, err
	}
	policy, err := passwordPolicy(cfg)
	if err != nil {
		return nil, err
	}
	var notifier auth.Notifier
	if cfg.SMTP.Enabled {
		notifier = email.NewLockNotifier(email.NewSMTPSender(cfg.SMTP.SMTPConfig), nil)
	}
	params := opts.PasswordParams
	if params == (password.Params{}) {
		params = password.Default
	}

	a.Auth = auth.NewService(auth.Deps{
		Identities:     repos.Identities,
		Credentials:    repos.Credentials,
		RefreshTokens:  repos.RefreshTokens,
		Sessions:       session.NewRegistry(repos.Sessions),
		Codec:          codec,
		Permissions:    permission.NewResolver(roles),
		RefreshTTL:     config.Duration(cfg.JWT.RefreshTTL),
		Lockout:        auth.LockoutPolicy{Threshold: cfg.Auth.Lockout.Threshold, Windows: cfg.LockoutWindows()},
		PasswordParams: params,
		Policies:       auth.StaticPolicy{Policy: policy},
		Notifier:       notifier,
		Events:         metrics.AuthRecorder{},
	})

	// ─── Seed ───
	if cfg.Seed.Path != "" {
		f, err := bootstrap.LoadFile(cfg.Seed.Path)
		if err != nil {
			return nil, err
		}
		if _, err := bootstrap.Apply(ctx, bootstrap.Deps{
			Roles:        repos.Roles,
			Identities:   repos.Identities,
			Provisioning: repos.Provisioning,
			Params:       params,
		}, f); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	// ─── Rate limiting ───
	loginLimiter, refreshLimiter, err := a.limiters(ctx)
	if err != nil {
		return nil, err
	}

	// ─── Métricas ───
	var metricsHandler http.Handler
	if !opts.DisableMetrics {
		metricsHandler, err = metrics.Register(metrics.Config{Pool: repos.PGPool})
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	// ─── HTTP ───
	cookies := helpers.CookieConfig{
		AccessName:  cfg.Auth.Cookie.AccessName,
		RefreshName: cfg.Auth.Cookie.RefreshName,
		Domain:      cfg.Auth.Cookie.Domain,
		SameSite:    cfg.Auth.Cookie.SameSite,
		Secure:      cfg.Auth.Cookie.Secure || cfg.IsProd(),
	}
	checks := []health.Check{
		{Name: "store", Required: true, Ping: repos.Ping},
		{Name: "cache", Ping: rc.Ping},
	}

	a.Handler = router.New(router.Deps{
		Auth: authctrl.NewControllers(a.Auth, cookies),
		Admin: adminctrl.NewControllers(adminctrl.Deps{
			Service:    a.Auth,
			Identities: repos.Identities,
		}),
		Health:         health.NewHealthController(Version, 0, checks...),
		Authenticator:  a.Auth,
		AccessCookie:   cookies.AccessName,
		LoginLimiter:   loginLimiter,
		RefreshLimiter: refreshLimiter,
		Metrics:        metricsHandler,
		TrustedProxies: cfg.TrustedProxies(),
	})
	return a, nil
}

// limiters arma los rate limiters de login y refresh. Sin rate.enabled
// retorna nil (sin límite).
func (a *App) limiters(ctx context.Context) (login, refresh rate.Limiter, err error) {
	c := a.cfg.Rate
	if !c.Enabled {
		return nil, nil, nil
	}
	lw, rw := config.Duration(c.Login.Window), config.Duration(c.Refresh.Window)

	switch c.Driver {
	case "redis":
		client := rdb.NewClient(&rdb.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("rate redis ping: %w", err)
		}
		prefix := a.cfg.Redis.Prefix + ":rl"
		return rate.NewRedisLimiter(client, prefix+":login", c.Login.Limit, lw),
			rate.NewRedisLimiter(client, prefix+":refresh", c.Refresh.Limit, rw), nil
	default:
		return rate.NewMemoryLimiter(c.Login.Limit, lw), rate.NewMemoryLimiter(c.Refresh.Limit, rw), nil
	}
}

func passwordPolicy(cfg *config.Config) (password.Policy, error) {
	pp := cfg.Security.PasswordPolicy
	p := password.Policy{
		MinLength:     pp.MinLength,
		MaxLength:     pp.MaxLength,
		RequireUpper:  pp.RequireUpper,
		RequireLower:  pp.RequireLower,
		RequireDigit:  pp.RequireDigit,
		RequireSymbol: pp.RequireSymbol,
	}
	if path := cfg.Security.PasswordBlacklistPath; path != "" {
		bl, err := password.LoadBlacklist(path)
		if err != nil {
			return p, fmt.Errorf("password blacklist: %w", err)
		}
		p.Blacklist = bl
	}
	return p, nil
}

// RunJanitor purga refresh tokens vencidos cada auth.janitor_interval hasta
// que ctx se cancele.
func (a *App) RunJanitor(ctx context.Context) {
	interval := config.Duration(a.cfg.Auth.JanitorInterval)
	if interval <= 0 {
		return
	}
	log := logger.From(ctx).With(logger.Layer("app"), logger.Component("janitor"))
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := a.Repos.RefreshTokens.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				log.Warn("refresh token purge failed", logger.Err(err))
				continue
			}
			if n > 0 {
				log.Info("expired refresh tokens purged", logger.Count(n))
			}
		}
	}
}

// Close libera los backends en orden inverso de apertura.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
