package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port         string `mapstructure:"PORT"`
	Env          string `mapstructure:"ENV"`
	AuthMode     string `mapstructure:"AUTH_MODE"`
	DevUID       string `mapstructure:"DEV_UID"`
	StoreBackend string `mapstructure:"STORE_BACKEND"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	GraphQLEndpoint     string   `mapstructure:"GRAPHQL_ENDPOINT"`
	GraphQLTokenURL     string   `mapstructure:"GRAPHQL_TOKEN_URL"`
	GraphQLClientID     string   `mapstructure:"GRAPHQL_CLIENT_ID"`
	GraphQLClientSecret string   `mapstructure:"GRAPHQL_CLIENT_SECRET"`
	GraphQLScopes       []string `mapstructure:"GRAPHQL_SCOPES"`
	GraphQLAdminSecret  string   `mapstructure:"GRAPHQL_ADMIN_SECRET"`

	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string        `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL    string        `mapstructure:"AUTH_JWKS_URL"`
	AuthSigningKey string        `mapstructure:"AUTH_SIGNING_KEY"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`

	IDPBaseURL string `mapstructure:"IDP_BASE_URL"`
	IDPAPIKey  string `mapstructure:"IDP_API_KEY"`

	GenAIBaseURL string `mapstructure:"GENAI_BASE_URL"`
	GenAIAPIKey  string `mapstructure:"GENAI_API_KEY"`
	GenAIModel   string `mapstructure:"GENAI_MODEL"`

	GeocodeURL    string `mapstructure:"GEOCODE_URL"`
	GeocodeAPIKey string `mapstructure:"GEOCODE_API_KEY"`

	RedisURL         string        `mapstructure:"REDIS_URL"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS     float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	UpstreamTimeout  time.Duration `mapstructure:"UPSTREAM_TIMEOUT"`
	ProvisioningMode string        `mapstructure:"PROVISIONING_MODE"`
	AllowAdminSignup bool          `mapstructure:"ALLOW_ADMIN_SIGNUP"`
}

var envKeys = []string{
	"PORT", "ENV", "AUTH_MODE", "DEV_UID", "STORE_BACKEND",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"GRAPHQL_ENDPOINT", "GRAPHQL_TOKEN_URL", "GRAPHQL_CLIENT_ID",
	"GRAPHQL_CLIENT_SECRET", "GRAPHQL_SCOPES", "GRAPHQL_ADMIN_SECRET",
	"AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_JWKS_URL", "AUTH_SIGNING_KEY",
	"SESSION_TTL", "IDP_BASE_URL", "IDP_API_KEY",
	"GENAI_BASE_URL", "GENAI_API_KEY", "GENAI_MODEL",
	"GEOCODE_URL", "GEOCODE_API_KEY",
	"REDIS_URL", "CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"REQUEST_TIMEOUT", "UPSTREAM_TIMEOUT", "PROVISIONING_MODE",
	"ALLOW_ADMIN_SIGNUP",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("AUTH_MODE", "") // "" -> inferred from ENV
	v.SetDefault("DEV_UID", "dev-user")
	v.SetDefault("STORE_BACKEND", "postgres")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("SESSION_TTL", "1h")
	v.SetDefault("IDP_BASE_URL", "https://identitytoolkit.googleapis.com/v1")
	v.SetDefault("GENAI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("GENAI_MODEL", "gemini-pro")
	v.SetDefault("GEOCODE_URL", "https://api.opencagedata.com/geocode/v1/json")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("UPSTREAM_TIMEOUT", "10s")
	v.SetDefault("PROVISIONING_MODE", "saga")
	v.SetDefault("ALLOW_ADMIN_SIGNUP", false)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(cfg.CORSOrigins, v.GetString("CORS_ORIGINS"))
	cfg.GraphQLScopes = splitList(cfg.GraphQLScopes, v.GetString("GRAPHQL_SCOPES"))

	if cfg.IsDev() {
		log.Println("WARNING: running in development mode; requests without a token act as DEV_UID")
	}

	return cfg, nil
}

// splitList handles comma separated env values that viper leaves as a
// single element.
func splitList(parsed []string, raw string) []string {
	if len(parsed) > 1 {
		return parsed
	}
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// ResolvedAuthMode returns the effective auth mode. If AUTH_MODE is set it
// wins. Otherwise:
//   - ENV=development → "development" (missing token acts as DEV_UID)
//   - AUTH_ISSUER set → "external" (OIDC issuer, RS256 ID tokens)
//   - Otherwise       → "shared_key" (HS256 tokens signed with AUTH_SIGNING_KEY)
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return "development"
	}
	if c.AuthIssuer != "" {
		return "external"
	}
	return "shared_key"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	switch mode := c.ResolvedAuthMode(); mode {
	case "development":
	case "external":
		if c.AuthIssuer == "" {
			return fmt.Errorf("AUTH_ISSUER must be set when AUTH_MODE is \"external\"")
		}
	case "shared_key":
		if len(c.AuthSigningKey) < 32 {
			return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes when AUTH_MODE is \"shared_key\"")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be \"development\", \"external\", or \"shared_key\", got %q", mode)
	}

	switch c.StoreBackend {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is \"postgres\"")
		}
	case "graphql":
		if c.GraphQLEndpoint == "" {
			return fmt.Errorf("GRAPHQL_ENDPOINT is required when STORE_BACKEND is \"graphql\"")
		}
		if c.GraphQLTokenURL != "" && (c.GraphQLClientID == "" || c.GraphQLClientSecret == "") {
			return fmt.Errorf("GRAPHQL_CLIENT_ID and GRAPHQL_CLIENT_SECRET are required with GRAPHQL_TOKEN_URL")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be \"postgres\" or \"graphql\", got %q", c.StoreBackend)
	}

	// A shared admin secret would grant every browser full backend access.
	if c.GraphQLAdminSecret != "" {
		return fmt.Errorf("GRAPHQL_ADMIN_SECRET is not supported; configure GRAPHQL_TOKEN_URL client credentials or forward user tokens")
	}

	switch c.ProvisioningMode {
	case "saga", "best_effort":
	default:
		return fmt.Errorf("PROVISIONING_MODE must be \"saga\" or \"best_effort\", got %q", c.ProvisioningMode)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}
