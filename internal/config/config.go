package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode          string        `mapstructure:"mode"`
	Port          int           `mapstructure:"port"`
	ReadLimit     int64         `mapstructure:"read_limit"`
	PingPeriod    time.Duration `mapstructure:"ping_period"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	DatabaseDSN   string        `mapstructure:"database_dsn"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	SnapshotEvery time.Duration `mapstructure:"snapshot_every"`
	ReviewEvery   time.Duration `mapstructure:"review_every"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("database_dsn", "inkroom:inkroom@tcp(127.0.0.1:3306)/inkroom?parseTime=true")
	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("snapshot_every", "30s")
	v.SetDefault("review_every", "10s")

	// Secrets come from the environment, never from the yaml file.
	v.SetDefault("jwt_secret", "")
	_ = v.BindEnv("jwt_secret", "INKROOM_JWT_SECRET")
	_ = v.BindEnv("database_dsn", "INKROOM_DATABASE_DSN")
	_ = v.BindEnv("redis_password", "INKROOM_REDIS_PASSWORD")

	if err := v.ReadInConfig(); err != nil {
		// A missing file falls back to defaults plus env; a broken file does not.
		if _, statErr := os.Stat(fileName); statErr == nil {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
