package app

import (
	"context"
	"crypto/tls"
	"expvar"
	"flag"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_logrus "github.com/grpc-ecosystem/go-grpc-middleware/logging/logrus"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_ctxtags "github.com/grpc-ecosystem/go-grpc-middleware/tags"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"

	grpc_util "github.com/code-payments/presale-server/pkg/grpc"
	"github.com/code-payments/presale-server/pkg/grpc/metrics"
	metrics_util "github.com/code-payments/presale-server/pkg/metrics"
	"github.com/code-payments/presale-server/pkg/osutil"
)

// App is a long lived application that services network requests over HTTP
// and, optionally, gRPC.
//
// The lifecycle of the App is tied to the process. The app gets initialized
// before the servers run, and gets stopped after the servers have stopped
// serving.
type App interface {
	// Init initializes the application in a blocking fashion. When Init returns, it
	// is expected that the application is ready to start receiving requests.
	Init(config Config, metricsProvider *newrelic.Application) error

	// RegisterWithGRPC provides a mechanism for the application to register gRPC services
	// with the gRPC servers.
	RegisterWithGRPC(server *grpc.Server)

	// RegisterWithHTTP provides a mechanism for the application to mount its
	// routes on the HTTP router.
	RegisterWithHTTP(router chi.Router)

	// ShutdownChan returns a channel that is closed when the application is shutdown.
	//
	// If the channel is closed, the servers will initiate a shutdown if they have
	// not already done so.
	ShutdownChan() <-chan struct{}

	// Stop stops the service, allowing for it to clean up any resources. When Stop()
	// returns, the process exits.
	//
	// Stop should be idempotent.
	Stop()
}

var (
	configPath = flag.String("config", "config.yaml", "configuration file path")

	osSigCh = make(chan os.Signal, 1)
)

func init() {
	signal.Notify(osSigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
}

// server is anything Run serves until shutdown
type server struct {
	name     string
	serve    func() error
	stop     func(ctx context.Context)
	stoppedC chan struct{}
}

// Run initializes app and serves it until the process is signalled, a server
// stops, or the app shuts itself down. Setup failures exit the process.
func Run(app App, options ...Option) error {
	flag.Parse()

	logger := logrus.StandardLogger().WithField("type", "grpc/app")
	exitOnError := func(err error, msg string) {
		if err != nil {
			logger.WithError(err).Error(msg)
			os.Exit(1)
		}
	}

	config, err := loadConfig(*configPath)
	exitOnError(err, "failed to load config")

	metricsProvider, err := newMetricsProvider(config)
	exitOnError(err, "error connecting to new relic")

	configureLogger(config, metricsProvider)

	// We don't want to expose pprof/expvar publically, so we reset the default
	// http ServeMux, which will have those installed due to the init() function
	// in those packages.
	http.DefaultServeMux = http.NewServeMux()
	startDebugServer(logger, config)

	var ballast []byte
	if config.EnableBallast {
		ballast = make([]byte, osutil.GetBallastSize(config.BallastCapacity))
	}

	memoryLeakShutdownCh, err := startMemoryLeakCron(config)
	exitOnError(err, "failed to initialize memory leak cron")

	tlsConfig, err := loadTLSConfig(config)
	exitOnError(err, "failed to load tls configuration")

	opts := opts{
		unaryServerInterceptors:  defaultUnaryServerInterceptors(metricsProvider),
		streamServerInterceptors: defaultStreamServerInterceptors(),
	}
	for _, o := range options {
		o(&opts)
	}

	exitOnError(app.Init(config.AppConfig, metricsProvider), "failed to initialize application")

	servers, err := newServers(logger, config, tlsConfig, metricsProvider, &opts, app)
	exitOnError(err, "failed to set up servers")

	stoppedCases := make([]<-chan struct{}, 0, len(servers))
	for _, s := range servers {
		go func(s *server) {
			if err := s.serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Errorf("%s serve stopped", s.name)
			} else {
				logger.Infof("%s stopped", s.name)
			}
			close(s.stoppedC)
		}(s)
		stoppedCases = append(stoppedCases, s.stoppedC)
	}

	// Wait for the following shutdown conditions:
	//    1. OS Signal telling us to shutdown
	//    2. Any server has shutdown (for whatever reason)
	//    3. The application has shutdown (for whatever reason)
	select {
	case <-osSigCh:
		logger.Info("interrupt received, shutting down")
	case <-anyClosed(stoppedCases...):
		logger.Info("server shutdown")
	case <-memoryLeakShutdownCh:
		logger.Info("shutdown to deal with memory leak")
	case <-app.ShutdownChan():
		logger.Info("app shutdown")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownGracePeriod)
	defer cancel()

	shutdownCh := make(chan struct{})
	go func() {
		// The servers and the application have idempotent shutdown methods,
		// so it's fine to call them all, regardless of the shutdown condition.
		for _, s := range servers {
			s.stop(ctx)
		}
		app.Stop()

		close(shutdownCh)
	}()

	select {
	case <-shutdownCh:
		// Ensure the ballast is used to avoid any possible compiler optimizations
		// around unused variable.
		if len(ballast) > 0 {
			ballast[0] = 1
		}

		return nil
	case <-ctx.Done():
		return errors.Errorf("failed to stop the application within %v", config.ShutdownGracePeriod)
	}
}

func loadConfig(path string) (BaseConfig, error) {
	// viper.ReadInConfig only returns ConfigFileNotFoundError if it has to search
	// for a default config file because one hasn't been explicitly set. That is,
	// if we explicitly set a config file, and it does not exist, viper will not
	// return a ConfigFileNotFoundError, so we do it ourselves.
	if _, err := os.Stat(path); err == nil {
		viper.SetConfigFile(path)
	} else if !os.IsNotExist(err) {
		return BaseConfig{}, errors.Wrap(err, "failed to check if config exists")
	}

	err := viper.ReadInConfig()
	if _, isConfigNotFound := err.(viper.ConfigFileNotFoundError); err != nil && !isConfigNotFound {
		return BaseConfig{}, err
	}

	config := defaultConfig
	if err := viper.Unmarshal(&config); err != nil {
		return BaseConfig{}, errors.Wrap(err, "failed to unmarshal config")
	}

	return config, config.validate()
}

// todo: Better abstraction so we're not directly tied to NR
func newMetricsProvider(config BaseConfig) (*newrelic.Application, error) {
	if len(config.NewRelicLicenseKey) == 0 {
		return nil, nil
	}

	return newrelic.NewApplication(
		newrelic.ConfigFromEnvironment(),
		newrelic.ConfigAppName(config.AppName),
		newrelic.ConfigLicense(config.NewRelicLicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
}

func startDebugServer(logger *logrus.Entry, config BaseConfig) {
	if !config.EnableExpvar && !config.EnablePprof {
		return
	}

	debugHTTPMux := http.NewServeMux()
	if config.EnableExpvar {
		debugHTTPMux.Handle("/debug/vars", expvar.Handler())
	}
	if config.EnablePprof {
		debugHTTPMux.HandleFunc("/debug/pprof/", pprof.Index)
		debugHTTPMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		debugHTTPMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		debugHTTPMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		debugHTTPMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	go func() {
		for {
			if err := http.ListenAndServe(config.DebugListenAddress, debugHTTPMux); err != nil {
				logger.WithError(err).Warn("Debug HTTP server failed. Retrying in 5s...")
			}
			time.Sleep(5 * time.Second)
		}
	}()
}

// startMemoryLeakCron returns a channel closed on the configured schedule. It
// is never closed when the cron is disabled.
func startMemoryLeakCron(config BaseConfig) (<-chan struct{}, error) {
	shutdownCh := make(chan struct{})
	if !config.EnableMemoryLeakCron {
		return shutdownCh, nil
	}

	cronJob := cron.New(cron.WithLocation(time.Local))
	_, err := cronJob.AddFunc(config.MemoryLeakCronSchedule, func() {
		close(shutdownCh)
	})
	if err != nil {
		return nil, err
	}
	cronJob.Start()

	return shutdownCh, nil
}

// loadTLSConfig returns nil when no certificate is configured
func loadTLSConfig(config BaseConfig) (*tls.Config, error) {
	if config.TLSCertificate == "" {
		return nil, nil
	}

	certBytes, err := LoadFile(config.TLSCertificate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load tls certificate")
	}

	keyBytes, err := LoadFile(config.TLSKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load tls key")
	}

	cert, err := tls.X509KeyPair(certBytes, keyBytes)
	if err != nil {
		return nil, errors.Wrap(err, "invalid certificate/private key")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func defaultUnaryServerInterceptors(metricsProvider *newrelic.Application) []grpc.UnaryServerInterceptor {
	var interceptors []grpc.UnaryServerInterceptor

	// Metrics interceptor should be at the top of the chain, so we can capture
	// as many calls as possible.
	if metricsProvider != nil {
		interceptors = append(interceptors, metrics.CustomNewRelicUnaryServerInterceptor(metricsProvider))
	}

	return append(
		interceptors,
		grpc_ctxtags.UnaryServerInterceptor(),
		grpc_logrus.UnaryServerInterceptor(grpcLogger(), grpcLogDecider()),
		grpc_recovery.UnaryServerInterceptor(),
	)
}

func defaultStreamServerInterceptors() []grpc.StreamServerInterceptor {
	return []grpc.StreamServerInterceptor{
		grpc_ctxtags.StreamServerInterceptor(),
		grpc_logrus.StreamServerInterceptor(grpcLogger(), grpcLogDecider()),
		grpc_recovery.StreamServerInterceptor(),
	}
}

func grpcLogger() *logrus.Entry {
	return logrus.StandardLogger().WithField("type", "grpc/server")
}

// Successful health checks are too chatty to log
func grpcLogDecider() grpc_logrus.Option {
	return grpc_logrus.WithDecider(func(fullMethodName string, err error) bool {
		return err != nil || !grpc_util.IsHealthCheckEndpoint(fullMethodName)
	})
}

// newServers sets up the HTTP server and the gRPC servers. The secure gRPC
// server only exists when TLS is configured.
func newServers(logger *logrus.Entry, config BaseConfig, tlsConfig *tls.Config, metricsProvider *newrelic.Application, opts *opts, app App) ([]*server, error) {
	var servers []*server

	httpLis, err := net.Listen("tcp", config.HTTPListenAddress)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to listen on %s", config.HTTPListenAddress)
	}

	router := newHTTPRouter(logger, metricsProvider, opts.httpMiddleware...)
	app.RegisterWithHTTP(router)

	httpServ := &http.Server{
		Handler:           router,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: config.HTTPReadHeaderTimeout,
		IdleTimeout:       config.HTTPIdleTimeout,
	}
	servers = append(servers, &server{
		name: "http server",
		serve: func() error {
			if tlsConfig != nil {
				return httpServ.ServeTLS(httpLis, "", "")
			}
			return httpServ.Serve(httpLis)
		},
		stop: func(ctx context.Context) {
			if err := httpServ.Shutdown(ctx); err != nil {
				logger.WithError(err).Warn("failed to gracefully stop http server")
			}
		},
		stoppedC: make(chan struct{}),
	})

	grpcServerOpts := []grpc.ServerOption{
		grpc_middleware.WithUnaryServerChain(opts.unaryServerInterceptors...),
		grpc_middleware.WithStreamServerChain(opts.streamServerInterceptors...),
	}

	insecureLis, err := net.Listen("tcp", config.InsecureListenAddress)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to listen on %s", config.InsecureListenAddress)
	}
	servers = append(servers, newGRPCServer("insecure grpc server", insecureLis, app, grpcServerOpts...))

	if tlsConfig != nil {
		secureLis, err := net.Listen("tcp", config.ListenAddress)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to listen on %s", config.ListenAddress)
		}

		secureOpts := append([]grpc.ServerOption{grpc.Creds(credentials.NewTLS(tlsConfig))}, grpcServerOpts...)
		servers = append(servers, newGRPCServer("secure grpc server", secureLis, app, secureOpts...))
	}

	return servers, nil
}

func newGRPCServer(name string, lis net.Listener, app App, opts ...grpc.ServerOption) *server {
	grpcServ := grpc.NewServer(opts...)
	app.RegisterWithGRPC(grpcServ)
	healthgrpc.RegisterHealthServer(grpcServ, health.NewServer())

	return &server{
		name: name,
		serve: func() error {
			return grpcServ.Serve(lis)
		},
		stop: func(_ context.Context) {
			grpcServ.GracefulStop()
		},
		stoppedC: make(chan struct{}),
	}
}

// anyClosed returns a channel that is closed once any of chs is
func anyClosed(chs ...<-chan struct{}) <-chan struct{} {
	anyC := make(chan struct{})
	if len(chs) == 0 {
		return anyC
	}

	closeOnce := make(chan struct{}, 1)
	for _, ch := range chs {
		go func(ch <-chan struct{}) {
			<-ch
			select {
			case closeOnce <- struct{}{}:
				close(anyC)
			default:
			}
		}(ch)
	}
	return anyC
}

func configureLogger(config BaseConfig, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics_util.NewCustomNewRelicLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stdout)
}
