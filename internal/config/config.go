package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type MatchingConfig struct {
	ScoreThreshold int
	// EvalBlend is the weight given to the historical evaluation aggregate
	// when blending it with the kernel score (0.10 means 90/10).
	EvalBlend float64
}

type ContractsConfig struct {
	// SPVMinValue is the regulatory floor for SPV opportunity budgets.
	SPVMinValue float64
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Matching    MatchingConfig
	Contracts   ContractsConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Matching: MatchingConfig{
			ScoreThreshold: v.GetInt("MATCH_SCORE_THRESHOLD"),
			EvalBlend:      v.GetFloat64("MATCH_EVAL_BLEND"),
		},
		Contracts: ContractsConfig{
			SPVMinValue: v.GetFloat64("MULTIPARTY_SPV_MIN_VALUE"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Matching.ScoreThreshold == 0 {
		cfg.Matching.ScoreThreshold = 80
	}
	if cfg.Matching.EvalBlend == 0 {
		cfg.Matching.EvalBlend = 0.10
	}
	if cfg.Contracts.SPVMinValue == 0 {
		cfg.Contracts.SPVMinValue = 1_000_000
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Matching.ScoreThreshold < 0 || cfg.Matching.ScoreThreshold > 100 {
		return fmt.Errorf("MATCH_SCORE_THRESHOLD must be within 0..100")
	}
	if cfg.Matching.EvalBlend < 0 || cfg.Matching.EvalBlend > 1 {
		return fmt.Errorf("MATCH_EVAL_BLEND must be within 0..1")
	}
	return nil
}
