// internal/app/bootstrap/routes.go
package bootstrap

import (
	"crypto/sha256"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/bloodlink/internal/app/directory"
	apifeature "github.com/dalemusser/bloodlink/internal/app/features/api"
	dashboardfeature "github.com/dalemusser/bloodlink/internal/app/features/dashboard"
	emergencyfeature "github.com/dalemusser/bloodlink/internal/app/features/emergency"
	errorsfeature "github.com/dalemusser/bloodlink/internal/app/features/errors"
	healthfeature "github.com/dalemusser/bloodlink/internal/app/features/health"
	homefeature "github.com/dalemusser/bloodlink/internal/app/features/home"
	registerfeature "github.com/dalemusser/bloodlink/internal/app/features/register"
	searchfeature "github.com/dalemusser/bloodlink/internal/app/features/search"
	userinfofeature "github.com/dalemusser/bloodlink/internal/app/features/userinfo"
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// stopper is anything with background goroutines that Shutdown must end.
type stopper interface{ Stop() }

var (
	stopMu   sync.Mutex
	stoppers []stopper
)

func trackStop(s stopper) {
	stopMu.Lock()
	stoppers = append(stoppers, s)
	stopMu.Unlock()
}

// stopAll stops everything registered by BuildHandler. Safe to call twice.
func stopAll() {
	stopMu.Lock()
	defer stopMu.Unlock()
	for _, s := range stoppers {
		s.Stop()
	}
	stoppers = nil
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// The tree has two halves. /api/v1 is a JSON API with CORS and a per-IP
// rate limit; only its donor self-service routes read the session. Everything else is server-rendered HTML behind the
// donor session and CSRF protection.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	svc := directory.NewMongo(deps.MongoDatabase, logger)
	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// JSON API
	apiOpts := apifeature.Options{AllowedOrigins: appCfg.CORSAllowedOrigins, Sessions: sessionMgr}
	if appCfg.APIRateLimit > 0 {
		apiOpts.Limiter = ratelimit.New(appCfg.APIRateLimit, time.Minute)
		trackStop(apiOpts.Limiter)
	}
	r.Mount("/api/v1", apifeature.Routes(apifeature.NewHandler(svc, logger), apiOpts))

	// HTML pages
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware(appCfg.SessionKey, secure, errorsHandler))
		r.Use(sessionMgr.LoadDonor)

		r.Mount("/", homefeature.Routes(homefeature.NewHandler(svc, logger)))
		r.Mount("/register", registerfeature.Routes(registerfeature.NewHandler(svc, errLog, logger)))
		r.Mount("/search", searchfeature.Routes(searchfeature.NewHandler(svc, errLog, logger)))
		r.Mount("/emergency", emergencyfeature.Routes(emergencyfeature.NewHandler(svc, errLog, logger)))

		loginLimiter := ratelimit.NewLoginLimiter()
		trackStop(loginLimiter)
		dashboardHandler := dashboardfeature.NewHandler(svc, sessionMgr, loginLimiter, errLog, logger)
		r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

		userinfofeature.MountRoutes(r, userinfofeature.NewHandler())
	})

	r.NotFound(errorsHandler.NotFound)

	return r, nil
}

// csrfMiddleware protects every HTML form. The token key is derived from the
// session key so one secret configures both.
func csrfMiddleware(sessionKey string, secure bool, errs *errorsfeature.Handler) func(http.Handler) http.Handler {
	key := sha256.Sum256([]byte("csrf:" + sessionKey))
	protect := csrf.Protect(key[:],
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(errs.Forbidden)),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		if secure {
			return h
		}
		// gorilla/csrf assumes TLS and checks the Referer of unsafe
		// requests; plain-HTTP dev servers must opt out.
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
