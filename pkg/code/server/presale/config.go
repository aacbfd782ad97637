package presale_server

import (
	"time"

	"github.com/code-payments/presale-server/pkg/config"
	"github.com/code-payments/presale-server/pkg/config/env"
	"github.com/code-payments/presale-server/pkg/config/memory"
	"github.com/code-payments/presale-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "PRESALE_SERVICE_"

	EnableDevFundingConfigEnvName = envConfigPrefix + "ENABLE_DEV_FUNDING"
	defaultEnableDevFunding       = false

	MaxPageSizeConfigEnvName = envConfigPrefix + "MAX_PAGE_SIZE"
	defaultMaxPageSize       = 100

	MaxRequestBodySizeConfigEnvName = envConfigPrefix + "MAX_REQUEST_BODY_SIZE"
	defaultMaxRequestBodySize       = 16 * 1024

	RequestTimeoutConfigEnvName = envConfigPrefix + "REQUEST_TIMEOUT"
	defaultRequestTimeout       = 10 * time.Second

	AllowedOriginsConfigEnvName = envConfigPrefix + "ALLOWED_ORIGINS"
	defaultAllowedOrigins       = "*"
)

type conf struct {
	enableDevFunding   config.Bool
	maxPageSize        config.Uint64
	maxRequestBodySize config.Int64
	requestTimeout     config.Duration
	allowedOrigins     config.String
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			enableDevFunding:   env.NewBoolConfig(EnableDevFundingConfigEnvName, defaultEnableDevFunding),
			maxPageSize:        env.NewUint64Config(MaxPageSizeConfigEnvName, defaultMaxPageSize),
			maxRequestBodySize: env.NewInt64Config(MaxRequestBodySizeConfigEnvName, defaultMaxRequestBodySize),
			requestTimeout:     env.NewDurationConfig(RequestTimeoutConfigEnvName, defaultRequestTimeout),
			allowedOrigins:     env.NewStringConfig(AllowedOriginsConfigEnvName, defaultAllowedOrigins),
		}
	}
}

type testOverrides struct {
	enableDevFunding bool
	maxPageSize      uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	maxPageSize := overrides.maxPageSize
	if maxPageSize == 0 {
		maxPageSize = defaultMaxPageSize
	}

	return func() *conf {
		return &conf{
			enableDevFunding:   wrapper.NewBoolConfig(memory.NewConfig(overrides.enableDevFunding), false),
			maxPageSize:        wrapper.NewUint64Config(memory.NewConfig(maxPageSize), defaultMaxPageSize),
			maxRequestBodySize: wrapper.NewInt64Config(memory.NewConfig(int64(defaultMaxRequestBodySize)), defaultMaxRequestBodySize),
			requestTimeout:     wrapper.NewDurationConfig(memory.NewConfig(defaultRequestTimeout), defaultRequestTimeout),
			allowedOrigins:     wrapper.NewStringConfig(memory.NewConfig(defaultAllowedOrigins), defaultAllowedOrigins),
		}
	}
}
