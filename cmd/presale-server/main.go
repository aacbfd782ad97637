package main

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/external"
	"github.com/go-chi/chi/v5"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	xrate "golang.org/x/time/rate"
	"google.golang.org/grpc"

	"github.com/code-payments/presale-server/pkg/code/auth"
	code_data "github.com/code-payments/presale-server/pkg/code/data"
	"github.com/code-payments/presale-server/pkg/code/ledger"
	"github.com/code-payments/presale-server/pkg/code/presale"
	presale_server "github.com/code-payments/presale-server/pkg/code/server/presale"
	pg "github.com/code-payments/presale-server/pkg/database/postgres"
	"github.com/code-payments/presale-server/pkg/grpc/app"
	"github.com/code-payments/presale-server/pkg/rate"
)

type presaleApp struct {
	log *logrus.Entry

	db     *sql.DB
	redis  *redis.Client
	server presale_server.Server

	stopOnce   sync.Once
	shutdownCh chan struct{}
}

func (a *presaleApp) Init(_ app.Config, metricsProvider *newrelic.Application) error {
	cfg, err := loadInfraConfig()
	if err != nil {
		return err
	}

	var data code_data.Provider
	if cfg.Database.isConfigured() {
		a.db, err = openDatabase(&cfg.Database)
		if err != nil {
			return errors.Wrap(err, "failed to open database")
		}

		data, err = code_data.NewDataProviderFromDB(a.db, cfg.Auth.SignatureMaxAge)
		if err != nil {
			return err
		}
	} else {
		a.log.Warn("no database configured, state is kept in memory and lost on restart")
		data = code_data.NewTestDataProvider()
	}

	replayGuard := auth.NewEstimatedReplayGuard(data)
	purchaseLimiter := rate.NewLocalRateLimiter(
		xrate.Limit(float64(cfg.Purchase.RateLimit)/cfg.Purchase.RateWindow.Seconds()),
		int(cfg.Purchase.RateLimit),
		cfg.Purchase.RateKeys,
	)
	if len(cfg.Redis.Address) > 0 {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return errors.Wrap(err, "failed to connect to redis")
		}

		replayGuard = auth.NewRedisReplayGuard(a.redis, cfg.Auth.SignatureMaxAge+time.Minute)
		purchaseLimiter = rate.NewRedisRateLimiter(a.redis, cfg.Purchase.RateLimit, cfg.Purchase.RateWindow)
	}

	engine := presale.NewEngine(data, ledger.New(data, ledger.SystemClock()), presale.WithEnvConfigs())
	verifier := auth.NewRequestSignatureVerifier(replayGuard, cfg.Auth.SignatureMaxAge)

	a.server = presale_server.NewPresaleServer(engine, verifier, purchaseLimiter, presale_server.WithEnvConfigs())

	a.log.WithFields(logrus.Fields{
		"postgres":        a.db != nil,
		"redis":           a.redis != nil,
		"new_relic":       metricsProvider != nil,
		"signing_max_age": cfg.Auth.SignatureMaxAge,
	}).Info("presale server initialized")

	return nil
}

func openDatabase(cfg *databaseConfig) (*sql.DB, error) {
	if !cfg.UseAwsIam {
		return pg.NewWithUsernameAndPassword(cfg.toPostgresConfig())
	}

	awsConfig, err := external.LoadDefaultAWSConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load aws config")
	}
	return pg.NewWithAwsIam(cfg.toPostgresConfig(), awsConfig)
}

// The presale API is HTTP only. The gRPC listeners carry the health service.
func (a *presaleApp) RegisterWithGRPC(_ *grpc.Server) {}

func (a *presaleApp) RegisterWithHTTP(router chi.Router) {
	a.server.RegisterWithHTTP(router)
}

func (a *presaleApp) ShutdownChan() <-chan struct{} {
	return a.shutdownCh
}

func (a *presaleApp) Stop() {
	a.stopOnce.Do(func() {
		if a.redis != nil {
			if err := a.redis.Close(); err != nil {
				a.log.WithError(err).Warn("failed to close redis client")
			}
		}
		if a.db != nil {
			if err := a.db.Close(); err != nil {
				a.log.WithError(err).Warn("failed to close database")
			}
		}
		close(a.shutdownCh)
	})
}

func main() {
	a := &presaleApp{
		log:        logrus.StandardLogger().WithField("type", "presale/app"),
		shutdownCh: make(chan struct{}),
	}

	if err := app.Run(a); err != nil {
		logrus.WithError(err).Fatal("error running presale server")
	}
}
