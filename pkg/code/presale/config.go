package presale

import (
	"github.com/code-payments/presale-server/pkg/config"
	"github.com/code-payments/presale-server/pkg/config/env"
	"github.com/code-payments/presale-server/pkg/config/memory"
	"github.com/code-payments/presale-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "PRESALE_ENGINE_"

	StripedLockParallelizationConfigEnvName = envConfigPrefix + "STRIPED_LOCK_PARALLELIZATION"
	defaultStripedLockParallelization       = 1024

	CustodyCacheBudgetConfigEnvName = envConfigPrefix + "CUSTODY_CACHE_BUDGET"
	defaultCustodyCacheBudget       = 100_000

	DisablePurchasesConfigEnvName = envConfigPrefix + "DISABLE_PURCHASES"
	defaultDisablePurchases       = false
)

type conf struct {
	stripedLockParallelization config.Uint64
	custodyCacheBudget         config.Uint64
	disablePurchases           config.Bool
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			stripedLockParallelization: env.NewUint64Config(StripedLockParallelizationConfigEnvName, defaultStripedLockParallelization),
			custodyCacheBudget:         env.NewUint64Config(CustodyCacheBudgetConfigEnvName, defaultCustodyCacheBudget),
			disablePurchases:           env.NewBoolConfig(DisablePurchasesConfigEnvName, defaultDisablePurchases),
		}
	}
}

type testOverrides struct {
	disablePurchases bool
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			stripedLockParallelization: wrapper.NewUint64Config(memory.NewConfig(32), 32),
			custodyCacheBudget:         wrapper.NewUint64Config(memory.NewConfig(128), 128),
			disablePurchases:           wrapper.NewBoolConfig(memory.NewConfig(overrides.disablePurchases), false),
		}
	}
}
