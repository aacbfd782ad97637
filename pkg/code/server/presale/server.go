package presale_server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/presale-server/pkg/code/auth"
	"github.com/code-payments/presale-server/pkg/code/common"
	"github.com/code-payments/presale-server/pkg/code/ledger"
	"github.com/code-payments/presale-server/pkg/code/presale"
	"github.com/code-payments/presale-server/pkg/rate"
)

// Authenticator verifies that a request message was signed by signer
type Authenticator interface {
	Authenticate(ctx context.Context, signer *common.Account, message *auth.Message, signature []byte) error
}

type server struct {
	log  *logrus.Entry
	conf *conf

	engine *presale.Engine
	ledger *ledger.Ledger

	auth            Authenticator
	purchaseLimiter rate.Limiter
}

// Server is the HTTP/JSON API for presales
type Server interface {
	// RegisterWithHTTP installs the API's routes on router
	RegisterWithHTTP(router chi.Router)
}

func NewPresaleServer(
	engine *presale.Engine,
	authenticator Authenticator,
	purchaseLimiter rate.Limiter,
	configProvider ConfigProvider,
) Server {
	if purchaseLimiter == nil {
		purchaseLimiter = &rate.NoLimiter{}
	}

	return &server{
		log:             logrus.StandardLogger().WithField("type", "presale/server"),
		conf:            configProvider(),
		engine:          engine,
		ledger:          engine.Ledger(),
		auth:            authenticator,
		purchaseLimiter: purchaseLimiter,
	}
}

func (s *server) RegisterWithHTTP(router chi.Router) {
	ctx := context.Background()

	router.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: parseAllowedOrigins(s.conf.allowedOrigins.Get(ctx)),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", timestampHeaderName, signatureHeaderName},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
		r.Use(s.withRequestTimeout)

		r.Get("/healthz", s.health)

		r.Route("/v1", func(r chi.Router) {
			r.Post("/sales", s.initializeSale)
			r.Route("/sales/{sale}", func(r chi.Router) {
				r.Get("/", s.getSale)
				r.Get("/account", s.getSaleAccount)
				r.Post("/purchase", s.purchase)
				r.Post("/claim", s.claim)
				r.Post("/active", s.setActive)
				r.Get("/positions", s.getPositions)
				r.Get("/positions/{buyer}", s.getPosition)
				r.Get("/positions/{buyer}/account", s.getPositionAccount)
				r.Get("/events", s.getEvents)
			})

			r.Route("/custody", func(r chi.Router) {
				r.Get("/vaults/{mint}", s.getSaleVault)
				r.Get("/positions/{mint}/{buyer}", s.getPositionAccounts)
			})

			r.Get("/accounts/{account}/native-balance", s.getNativeBalance)
			r.Get("/token-accounts/{account}", s.getTokenBalance)

			r.Route("/dev", func(r chi.Router) {
				r.Use(s.requireDevFunding)
				r.Post("/airdrop", s.airdrop)
				r.Post("/mint", s.mintTo)
			})
		})
	})
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) withRequestTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timeout := s.conf.requestTimeout.Get(r.Context())
		if timeout <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) requireDevFunding(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.conf.enableDevFunding.Get(r.Context()) {
			s.writeError(w, r, errDevFundingDisabled)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func parseAllowedOrigins(value string) []string {
	var origins []string
	for _, origin := range strings.Split(value, ",") {
		origin = strings.TrimSpace(origin)
		if len(origin) > 0 {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func (s *server) now() time.Time {
	return s.ledger.Now()
}
