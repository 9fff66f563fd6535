package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Port                string
	DBDriver            string
	DBDSN               string
	JWTSecret           string
	JWTIssuer           string
	JWTTTL              time.Duration
	RedisURL            string
	CSRFTokenTTL        time.Duration
	StoreTimeout        time.Duration
	AllowAnonymousVotes bool
	VoteRatePerMinute   int
	VoteRateBurst       int
	LogLevel            slog.Level
	SecureCookies       bool
	TrustProxyHeaders   bool
}

var defaults = map[string]any{
	"app_port":              "8080",
	"db_driver":             "sqlite",
	"db_dsn":                "file:pollguard.db",
	"jwt_secret":            "",
	"jwt_issuer":            "pollguard",
	"jwt_ttl":               24 * time.Hour,
	"redis_url":             "",
	"csrf_token_ttl":        30 * time.Minute,
	"store_timeout":         5 * time.Second,
	"allow_anonymous_votes": false,
	"vote_rate_per_minute":  10,
	"vote_rate_burst":       3,
	"log_level":             "info",
	"secure_cookies":        false,
	"trust_proxy_headers":   false,
}

// Load layers defaults, a .env file, environment variables and command line
// flags, later sources winning.
func Load(args []string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	fs := pflag.NewFlagSet("pollguard", pflag.ContinueOnError)
	fs.String("app_port", "8080", "HTTP listen port")
	fs.String("db_driver", "sqlite", "Database driver: pgx or sqlite")
	fs.String("db_dsn", "file:pollguard.db", "Database connection string")
	fs.String("redis_url", "", "Redis URL for the anti-forgery token store; empty keeps tokens in memory")
	fs.String("log_level", "info", "Log level: debug, info, warn, error")
	fs.Bool("allow_anonymous_votes", false, "Accept votes from callers without an account")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Config{
		Port:                v.GetString("app_port"),
		DBDriver:            v.GetString("db_driver"),
		DBDSN:               v.GetString("db_dsn"),
		JWTSecret:           v.GetString("jwt_secret"),
		JWTIssuer:           v.GetString("jwt_issuer"),
		JWTTTL:              v.GetDuration("jwt_ttl"),
		RedisURL:            v.GetString("redis_url"),
		CSRFTokenTTL:        v.GetDuration("csrf_token_ttl"),
		StoreTimeout:        v.GetDuration("store_timeout"),
		AllowAnonymousVotes: v.GetBool("allow_anonymous_votes"),
		VoteRatePerMinute:   v.GetInt("vote_rate_per_minute"),
		VoteRateBurst:       v.GetInt("vote_rate_burst"),
		SecureCookies:       v.GetBool("secure_cookies"),
		TrustProxyHeaders:   v.GetBool("trust_proxy_headers"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.VoteRatePerMinute <= 0 || cfg.VoteRateBurst <= 0 {
		return Config{}, errors.New("VOTE_RATE_PER_MINUTE and VOTE_RATE_BURST must be positive")
	}
	return cfg, nil
}
