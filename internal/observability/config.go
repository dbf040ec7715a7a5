package observability

import (
	"strings"

	"github.com/smallbiznis/utilibill/internal/config"
	"github.com/spf13/viper"
)

// Config is the logging and telemetry setup for one process.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

// LoadConfig overlays LOG_* and OTEL_* variables on the process config.
func LoadConfig(cfg config.Config) Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("deployment_env", cfg.Environment)
	v.SetDefault("service_version", cfg.AppVersion)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_exporter_otlp_endpoint", cfg.OTLPEndpoint)
	v.SetDefault("otel_exporter_otlp_protocol", "grpc")
	v.SetDefault("otel_sampling_ratio", 0.1)

	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = "utilibill"
	}

	ratio := v.GetFloat64("otel_sampling_ratio")
	if ratio < 0 || ratio > 1 {
		ratio = 0.1
	}

	return Config{
		ServiceName:          name,
		Environment:          trimmed(v, "deployment_env"),
		Version:              trimmed(v, "service_version"),
		LogLevel:             strings.ToLower(trimmed(v, "log_level")),
		LogFormat:            strings.ToLower(trimmed(v, "log_format")),
		OtelEnabled:          v.GetBool("otel_enabled"),
		OtelExporterEndpoint: trimmed(v, "otel_exporter_otlp_endpoint"),
		OtelExporterProtocol: strings.ToLower(trimmed(v, "otel_exporter_otlp_protocol")),
		OtelSamplingRatio:    ratio,
	}
}

// Debug enables stack traces and gin debug output outside production.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func trimmed(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}
