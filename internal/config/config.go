// Package config carga la configuración del servicio desde YAML y la pisa
// con variables de entorno.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/orgauth/internal/email"
)

// ErrMissingJWTSecret: sin secreto no se pueden firmar tokens.
var ErrMissingJWTSecret = errors.New("config: jwt secret is required (JWT_SECRET)")

type RateRule struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"`
}

type Config struct {
	App struct {
		// dev | staging | prod
		Env      string `yaml:"app_env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
		// TrustedProxies son IPs o CIDRs cuyo X-Forwarded-For se acepta.
		// Vacío = se usa siempre la IP del socket.
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
		// store | redis: dónde viven sesiones de dispositivo y refresh tokens
		SessionsDriver string `yaml:"sessions_driver"`
	} `yaml:"storage"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	Cache struct {
		// memory | redis
		Kind    string `yaml:"kind"`
		RoleTTL string `yaml:"role_ttl"`
	} `yaml:"cache"`

	JWT struct {
		Secret     string `yaml:"secret"`
		Issuer     string `yaml:"issuer"`
		AccessTTL  string `yaml:"access_ttl"`
		RefreshTTL string `yaml:"refresh_ttl"`
	} `yaml:"jwt"`

	Auth struct {
		Cookie struct {
			AccessName  string `yaml:"access_name"`
			RefreshName string `yaml:"refresh_name"`
			Domain      string `yaml:"domain"`
			SameSite    string `yaml:"samesite"`
			Secure      bool   `yaml:"secure"`
		} `yaml:"cookie"`
		Lockout struct {
			Threshold int      `yaml:"threshold"`
			Windows   []string `yaml:"windows"`
		} `yaml:"lockout"`
		// Cada cuánto se purgan refresh tokens vencidos
		JanitorInterval string `yaml:"janitor_interval"`
	} `yaml:"auth"`

	Security struct {
		PasswordPolicy struct {
			MinLength     int  `yaml:"min_length"`
			MaxLength     int  `yaml:"max_length"`
			RequireUpper  bool `yaml:"require_upper"`
			RequireLower  bool `yaml:"require_lower"`
			RequireDigit  bool `yaml:"require_digit"`
			RequireSymbol bool `yaml:"require_symbol"`
		} `yaml:"password_policy"`
		PasswordBlacklistPath string `yaml:"password_blacklist_path"`
	} `yaml:"security"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		// memory | redis
		Driver  string   `yaml:"driver"`
		Login   RateRule `yaml:"login"`
		Refresh RateRule `yaml:"refresh"`
	} `yaml:"rate"`

	SMTP struct {
		Enabled          bool `yaml:"enabled"`
		email.SMTPConfig `yaml:",inline"`
	} `yaml:"smtp"`

	Seed struct {
		Path string `yaml:"path"`
	} `yaml:"seed"`
}

// Load lee el YAML (path vacío = solo defaults + env), aplica defaults,
// overrides de entorno y valida.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Rutas relativas se resuelven respecto al directorio del YAML
	if path != "" {
		base := filepath.Dir(path)
		for _, p := range []*string{&c.Security.PasswordBlacklistPath, &c.Seed.Path} {
			if v := strings.TrimSpace(*p); v != "" && !filepath.IsAbs(v) {
				*p = filepath.Clean(filepath.Join(base, v))
			}
		}
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "15s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.SessionsDriver == "" {
		c.Storage.SessionsDriver = "store"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "orgauth"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.RoleTTL == "" {
		c.Cache.RoleTTL = "30s"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "orgauth"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "720h" // 30d
	}
	if c.Auth.Cookie.AccessName == "" {
		c.Auth.Cookie.AccessName = "access_token"
	}
	if c.Auth.Cookie.RefreshName == "" {
		c.Auth.Cookie.RefreshName = "refresh_token"
	}
	if c.Auth.Cookie.SameSite == "" {
		c.Auth.Cookie.SameSite = "Lax"
	}
	if c.Auth.Lockout.Threshold == 0 {
		c.Auth.Lockout.Threshold = 5
	}
	if len(c.Auth.Lockout.Windows) == 0 {
		c.Auth.Lockout.Windows = []string{"15m", "1h", "24h"}
	}
	if c.Auth.JanitorInterval == "" {
		c.Auth.JanitorInterval = "1h"
	}
	if c.Security.PasswordPolicy.MinLength == 0 {
		c.Security.PasswordPolicy.MinLength = 8
	}
	if c.Security.PasswordPolicy.MaxLength == 0 {
		c.Security.PasswordPolicy.MaxLength = 128
	}
	if c.Rate.Driver == "" {
		c.Rate.Driver = "memory"
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Rate.Refresh.Limit == 0 {
		c.Rate.Refresh.Limit = 30
	}
	if c.Rate.Refresh.Window == "" {
		c.Rate.Refresh.Window = "1m"
	}
	if c.SMTP.TLSMode == "" {
		c.SMTP.TLSMode = "auto"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvCSV(key string) ([]string, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

// applyEnvOverrides: las variables de entorno pisan el YAML.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}

	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_TRUSTED_PROXIES"); ok {
		c.Server.TrustedProxies = v
	}

	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("STORAGE_PG_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}
	if v, ok := getEnvStr("STORAGE_SESSIONS_DRIVER"); ok {
		c.Storage.SessionsDriver = v
	}

	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Redis.Prefix = v
	}

	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("CACHE_ROLE_TTL"); ok {
		c.Cache.RoleTTL = v
	}

	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvStr("JWT_REFRESH_TTL"); ok {
		c.JWT.RefreshTTL = v
	}

	if v, ok := getEnvStr("AUTH_COOKIE_DOMAIN"); ok {
		c.Auth.Cookie.Domain = v
	}
	if v, ok := getEnvBool("AUTH_COOKIE_SECURE"); ok {
		c.Auth.Cookie.Secure = v
	}
	if v, ok := getEnvInt("AUTH_LOCKOUT_THRESHOLD"); ok {
		c.Auth.Lockout.Threshold = v
	}
	if v, ok := getEnvCSV("AUTH_LOCKOUT_WINDOWS"); ok {
		c.Auth.Lockout.Windows = v
	}

	if v, ok := getEnvInt("SECURITY_PASSWORD_POLICY_MIN_LENGTH"); ok {
		c.Security.PasswordPolicy.MinLength = v
	}
	if v, ok := getEnvStr("SECURITY_PASSWORD_BLACKLIST_PATH"); ok {
		c.Security.PasswordBlacklistPath = v
	}

	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_DRIVER"); ok {
		c.Rate.Driver = v
	}
	if v, ok := getEnvInt("RATE_LOGIN_LIMIT"); ok {
		c.Rate.Login.Limit = v
	}

	if v, ok := getEnvBool("SMTP_ENABLED"); ok {
		c.SMTP.Enabled = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}

	if v, ok := getEnvStr("SEED_PATH"); ok {
		c.Seed.Path = v
	}
}

// Validate rechaza configuraciones con las que el servicio no puede arrancar.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return ErrMissingJWTSecret
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			return errors.New("config: storage.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Storage.SessionsDriver {
	case "store", "redis":
	default:
		return fmt.Errorf("config: unknown sessions driver %q", c.Storage.SessionsDriver)
	}
	needRedis := c.Storage.SessionsDriver == "redis" || c.Cache.Kind == "redis" ||
		(c.Rate.Enabled && c.Rate.Driver == "redis")
	if needRedis && c.Redis.Addr == "" {
		return errors.New("config: redis.addr is required by the selected drivers")
	}

	for _, p := range c.Server.TrustedProxies {
		if _, err := ParseCIDR(p); err != nil {
			return fmt.Errorf("config: server.trusted_proxies: %w", err)
		}
	}

	durations := map[string]string{
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"cache.role_ttl":          c.Cache.RoleTTL,
		"jwt.access_ttl":          c.JWT.AccessTTL,
		"jwt.refresh_ttl":         c.JWT.RefreshTTL,
		"auth.janitor_interval":   c.Auth.JanitorInterval,
		"rate.login.window":       c.Rate.Login.Window,
		"rate.refresh.window":     c.Rate.Refresh.Window,
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		durations["storage.postgres.conn_max_lifetime"] = c.Storage.Postgres.ConnMaxLifetime
	}
	for i, w := range c.Auth.Lockout.Windows {
		durations[fmt.Sprintf("auth.lockout.windows[%d]", i)] = w
	}
	for field, v := range durations {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("config: %s: %w", field, err)
		}
	}
	if c.SMTP.Enabled && (c.SMTP.Host == "" || c.SMTP.From == "") {
		return errors.New("config: smtp.host and smtp.from are required when smtp is enabled")
	}
	return nil
}

// IsProd indica si corre en producción.
func (c *Config) IsProd() bool {
	return strings.EqualFold(c.App.Env, "prod")
}

// Duration parsea un valor ya validado. Un valor inválido retorna 0.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(strings.TrimSpace(s))
	return d
}

// ParseCIDR acepta un CIDR o una IP suelta (se toma como /32 o /128).
func ParseCIDR(s string) (*net.IPNet, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		_, n, err := net.ParseCIDR(s)
		return n, err
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("invalid ip %q", s)
	}
	bits := 128
	if v4 := ip.To4(); v4 != nil {
		ip, bits = v4, 32
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
}

// TrustedProxies retorna server.trusted_proxies parseados. Asume Validate.
func (c *Config) TrustedProxies() []*net.IPNet {
	out := make([]*net.IPNet, 0, len(c.Server.TrustedProxies))
	for _, p := range c.Server.TrustedProxies {
		if n, err := ParseCIDR(p); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// LockoutWindows retorna las ventanas de bloqueo parseadas.
func (c *Config) LockoutWindows() []time.Duration {
	out := make([]time.Duration, 0, len(c.Auth.Lockout.Windows))
	for _, w := range c.Auth.Lockout.Windows {
		out = append(out, Duration(w))
	}
	return out
}
