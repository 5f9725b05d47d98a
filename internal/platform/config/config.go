package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config captures everything the service needs at startup. Values come from
// DRAWCHECK_* environment variables with sensible defaults for development.
type Config struct {
	Addr             string
	SessionDir       string
	SessionTTL       time.Duration
	SweepInterval    time.Duration
	ValidatorTimeout time.Duration
	MaxUploadBytes   int64
	OCRMinDensity    int
	LogLevel         string
}

// Load builds a Config from the environment so main stays lean.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("DRAWCHECK")
	v.AutomaticEnv()

	// Optional drawcheck.yaml next to the binary; env vars win.
	v.SetConfigName("drawcheck")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetDefault("addr", ":8080")
	v.SetDefault("session_dir", "")
	v.SetDefault("session_ttl", 15*time.Minute)
	v.SetDefault("sweep_interval", time.Minute)
	v.SetDefault("validator_timeout", 15*time.Second)
	v.SetDefault("max_upload_bytes", int64(20<<20))
	v.SetDefault("ocr_min_density", 80)
	v.SetDefault("log_level", "info")

	return Config{
		Addr:             v.GetString("addr"),
		SessionDir:       v.GetString("session_dir"),
		SessionTTL:       v.GetDuration("session_ttl"),
		SweepInterval:    v.GetDuration("sweep_interval"),
		ValidatorTimeout: v.GetDuration("validator_timeout"),
		MaxUploadBytes:   v.GetInt64("max_upload_bytes"),
		OCRMinDensity:    v.GetInt("ocr_min_density"),
		LogLevel:         v.GetString("log_level"),
	}
}
