// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	dashboardfeature "github.com/YinkTech/peerreview/internal/app/features/dashboard"
	errorsfeature "github.com/YinkTech/peerreview/internal/app/features/errors"
	groupsfeature "github.com/YinkTech/peerreview/internal/app/features/groups"
	healthfeature "github.com/YinkTech/peerreview/internal/app/features/health"
	loginfeature "github.com/YinkTech/peerreview/internal/app/features/login"
	logoutfeature "github.com/YinkTech/peerreview/internal/app/features/logout"
	membersfeature "github.com/YinkTech/peerreview/internal/app/features/members"
	profilefeature "github.com/YinkTech/peerreview/internal/app/features/profile"
	reviewsfeature "github.com/YinkTech/peerreview/internal/app/features/reviews"
	signupfeature "github.com/YinkTech/peerreview/internal/app/features/signup"
	metricsstore "github.com/YinkTech/peerreview/internal/app/store/metrics"
	"github.com/YinkTech/peerreview/internal/app/system/auth"
	"github.com/YinkTech/peerreview/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed, so deps.Runtime holds the stores and
// services every feature handler is built from.
//
// Routes:
//   - /health                      liveness and database ping
//   - /auth/signup|login|logout    accounts and sessions
//   - /profile                     the signed-in user's profile
//   - /dashboard                   role-specific summary
//   - /reviews                     submit and read reviews
//   - /groups                      teacher group management and reports
//   - /students                    teacher roster management
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	rt := deps.Runtime
	if rt == nil || rt.ReviewSvc == nil {
		return nil, errors.New("runtime not initialized; Startup must run before BuildHandler")
	}

	loc, err := appCfg.Location()
	if err != nil {
		return nil, err
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Each request re-verifies its token and reloads the profile so group
	// changes and deleted accounts take effect immediately.
	sessionMgr.WithIdentity(rt.Identity, rt.Users)

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Accounts. Signup and login share one attempt limiter.
	limiter := ratelimit.NewAttemptLimiter()
	signupHandler := signupfeature.NewHandler(rt.Identity, rt.Users, sessionMgr, limiter, errLog, rt.Audit, logger)
	r.Mount("/auth/signup", signupfeature.Routes(signupHandler))

	loginHandler := loginfeature.NewHandler(rt.Identity, rt.Users, sessionMgr, limiter, errLog, rt.Audit, logger)
	r.Mount("/auth/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, rt.Identity, rt.Audit, logger)
	r.Mount("/auth/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	profileHandler := profilefeature.NewHandler(rt.Users, rt.Audit, errLog, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

	// Dashboard
	db := deps.MongoDatabase
	counts := func(ctx context.Context, since time.Time) metricsstore.Counts {
		return metricsstore.FetchDashboardCounts(ctx, db, since)
	}
	dashboardHandler := dashboardfeature.NewHandler(counts, loc, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// Reviews
	reviewsHandler := reviewsfeature.NewHandler(rt.ReviewSvc, rt.Users, rt.Groups, loc, rt.Audit, errLog, logger)
	r.Mount("/reviews", reviewsfeature.Routes(reviewsHandler, sessionMgr))

	// Groups, with the review reports that hang off a group
	groupsHandler := groupsfeature.NewHandler(rt.GroupSvc, rt.Groups, errLog, logger)
	groupsRouter := groupsfeature.Routes(groupsHandler, sessionMgr)
	reviewsfeature.GroupRoutes(groupsRouter, reviewsHandler, sessionMgr)
	r.Mount("/groups", groupsRouter)

	// Student roster
	membersHandler := membersfeature.NewHandler(rt.GroupSvc, errLog, logger)
	r.Mount("/students", membersfeature.Routes(membersHandler, sessionMgr))

	return r, nil
}
