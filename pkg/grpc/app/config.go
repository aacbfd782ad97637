package app

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the application specific configuration.
// It is passed to the App.Init function, and is optional.
type Config map[string]interface{}

// BaseConfig contains the base configuration for services, as well as the
// application itself.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	// HTTPListenAddress serves the app's HTTP API
	HTTPListenAddress string `mapstructure:"http_listen_address"`

	// ListenAddress and InsecureListenAddress serve gRPC, which carries the
	// standard health service plus anything the app registers
	ListenAddress         string `mapstructure:"listen_address"`
	InsecureListenAddress string `mapstructure:"insecure_listen_address"`
	DebugListenAddress    string `mapstructure:"debug_listen_address"`

	HTTPReadHeaderTimeout time.Duration `mapstructure:"http_read_header_timeout"`
	HTTPIdleTimeout       time.Duration `mapstructure:"http_idle_timeout"`

	// TLSCertificate is an optional URL that specified a TLS certificate to be
	// used for the HTTP and secure gRPC servers.
	//
	// Only the file scheme is supported. If no scheme is specified, file is
	// used.
	TLSCertificate string `mapstructure:"tls_certificate"`
	// TLSKey is an optional URL that specifies a TLS Private Key to be used for the
	// HTTP and secure gRPC servers.
	//
	// Only the file scheme is supported. If no scheme is specified, file is
	// used.
	TLSKey string `mapstructure:"tls_private_key"`

	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	EnablePprof  bool `mapstructure:"enable_pprof"`
	EnableExpvar bool `mapstructure:"enable_expvar"`

	// Ballast for improving Go GC performance. Note that capacity will be
	// limited to 50% of the total memory.
	// https://blog.twitch.tv/en/2019/04/10/go-memory-ballast-how-i-learnt-to-stop-worrying-and-love-the-heap/
	EnableBallast   bool    `mapstructure:"enable_ballast"`
	BallastCapacity float32 `mapstructure:"ballast_capacity"`

	// Periodically terminate the application when there's a memory leak
	EnableMemoryLeakCron   bool   `mapstructure:"enable_memory_leak_cron"`
	MemoryLeakCronSchedule string `mapstructure:"memory_leak_cron_schedule"`

	// Metrics configuration across many providers
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	// Arbitrary configuration that the service can define / implement.
	//
	// Users should use mapstructure.Decode for ServiceConfig.
	AppConfig Config `mapstructure:"app"`
}

var defaultConfig = BaseConfig{
	LogLevel: "info",

	HTTPListenAddress:     ":8080",
	ListenAddress:         ":8085",
	InsecureListenAddress: "localhost:8086",
	DebugListenAddress:    ":8123",

	HTTPReadHeaderTimeout: 5 * time.Second,
	HTTPIdleTimeout:       2 * time.Minute,

	ShutdownGracePeriod: 30 * time.Second,

	EnablePprof:  true,
	EnableExpvar: true,

	EnableBallast:   true,
	BallastCapacity: 0.333,

	EnableMemoryLeakCron:   false,
	MemoryLeakCronSchedule: "0 5 * * *",
}

func (c BaseConfig) validate() error {
	if len(c.AppName) == 0 {
		return errors.New("must specify an application name")
	}
	if len(c.HTTPListenAddress) == 0 {
		return errors.New("must specify an http listen address")
	}
	if c.TLSCertificate != "" && c.TLSKey == "" {
		return errors.New("tls key must be provided if certificate is specified")
	}
	if c.ShutdownGracePeriod <= 0 {
		return errors.New("shutdown grace period must be positive")
	}
	return nil
}

func init() {
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	_ = viper.BindEnv("app_name", "APP_NAME")

	_ = viper.BindEnv("http_listen_address", "HTTP_LISTEN_ADDRESS")
	_ = viper.BindEnv("listen_address", "LISTEN_ADDRESS")
	_ = viper.BindEnv("insecure_listen_address", "INSECURE_LISTEN_ADDRESS")
	_ = viper.BindEnv("debug_listen_address", "DEBUG_LISTEN_ADDRESS")

	_ = viper.BindEnv("http_read_header_timeout", "HTTP_READ_HEADER_TIMEOUT")
	_ = viper.BindEnv("http_idle_timeout", "HTTP_IDLE_TIMEOUT")

	_ = viper.BindEnv("tls_certificate", "TLS_CERTIFICATE")
	_ = viper.BindEnv("tls_private_key", "TLS_PRIVATE_KEY")

	_ = viper.BindEnv("shutdown_grace_period", "SHUTDOWN_GRACE_PERIOD")

	_ = viper.BindEnv("enable_pprof", "ENABLE_PPROF")
	_ = viper.BindEnv("enable_expvar", "ENABLE_EXPVAR")

	_ = viper.BindEnv("enable_ballast", "ENABLE_BALLAST")
	_ = viper.BindEnv("ballast_capacity", "BALLAST_CAPACITY")

	_ = viper.BindEnv("enable_memory_leak_cron", "ENABLE_MEMORY_LEAK_CRON")
	_ = viper.BindEnv("memory_leak_cron_schedule", "MEMORY_LEAK_CRON_SCHEDULE")

	_ = viper.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
}
