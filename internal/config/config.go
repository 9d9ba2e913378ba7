// Package config carga la configuración del proceso: defaults, luego .env (si existe),
// luego variables de entorno. El resultado es inmutable y se pasa por DI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	PublicBaseURL string

	// Admin
	AdminPassword       string
	AdminPasswordBcrypt string
	AdminCookieSecret   string
	AdminSessionTTL     time.Duration

	// Respuestas a reviews
	ReviewResponseSecret string
	ReviewResponseTTL    time.Duration
	ReviewResponseMaxLen int

	// Record store: DB_DSN > POCKETBASE_URL > memoria
	PocketBaseURL      string
	PocketBaseAPIToken string
	PocketBaseTimeout  time.Duration
	DatabaseDSN        string

	// Cache opcional de members
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	MemberCacheTTL time.Duration

	LogLevel  string
	LogFormat string
	AppName   string
}

// LoadDefaults aplica valores de desarrollo. Los secretos quedan vacíos: sin secreto
// las funciones de token fallan cerradas.
func (c *Config) LoadDefaults() {
	c.Port = "8080"
	c.PublicBaseURL = "http://localhost:8080"
	c.AdminSessionTTL = 7 * 24 * time.Hour
	c.ReviewResponseTTL = 14 * 24 * time.Hour
	c.ReviewResponseMaxLen = 4000
	c.PocketBaseTimeout = 10 * time.Second
	c.MemberCacheTTL = 60 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.AppName = "commontrust-web"
}

// Load lee .env (opcional) y el entorno sobre los defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv arma la Config a partir de getenv (inyectable en tests).
func FromEnv(getenv func(string) string) (Config, error) {
	var c Config
	c.LoadDefaults()

	p := parser{getenv: getenv}

	p.str("PORT", &c.Port)
	p.str("PUBLIC_BASE_URL", &c.PublicBaseURL)
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")

	p.str("ADMIN_PASSWORD", &c.AdminPassword)
	p.str("ADMIN_PASSWORD_BCRYPT", &c.AdminPasswordBcrypt)
	p.str("ADMIN_COOKIE_SECRET", &c.AdminCookieSecret)
	p.duration("ADMIN_SESSION_TTL", &c.AdminSessionTTL)

	p.str("REVIEW_RESPONSE_SECRET", &c.ReviewResponseSecret)
	p.duration("REVIEW_RESPONSE_TTL", &c.ReviewResponseTTL)
	p.integer("REVIEW_RESPONSE_MAX_LEN", &c.ReviewResponseMaxLen)

	p.str("POCKETBASE_URL", &c.PocketBaseURL)
	p.str("POCKETBASE_API_TOKEN", &c.PocketBaseAPIToken)
	p.duration("POCKETBASE_TIMEOUT", &c.PocketBaseTimeout)
	p.str("DB_DSN", &c.DatabaseDSN)

	p.str("REDIS_ADDR", &c.RedisAddr)
	p.str("REDIS_PASSWORD", &c.RedisPassword)
	p.integer("REDIS_DB", &c.RedisDB)
	p.duration("MEMBER_CACHE_TTL", &c.MemberCacheTTL)

	p.str("LOG_LEVEL", &c.LogLevel)
	p.str("LOG_FORMAT", &c.LogFormat)
	p.str("APP_NAME", &c.AppName)

	if len(p.errs) > 0 {
		return Config{}, errors.Join(p.errs...)
	}
	return c, nil
}

// Addr es la dirección de escucha del http.Server.
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// parser acumula errores para reportarlos todos juntos.
type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) lookup(key string) (string, bool) {
	v := strings.TrimSpace(p.getenv(key))
	return v, v != ""
}

func (p *parser) str(key string, dst *string) {
	if v, ok := p.lookup(key); ok {
		*dst = v
	}
}

func (p *parser) duration(key string, dst *time.Duration) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.errs = append(p.errs, fmt.Errorf("config: %s: invalid duration %q", key, v))
		return
	}
	*dst = d
}

func (p *parser) integer(key string, dst *int) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		p.errs = append(p.errs, fmt.Errorf("config: %s: invalid integer %q", key, v))
		return
	}
	*dst = n
}
