// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	groupsvc "github.com/YinkTech/peerreview/internal/app/services/groups"
	reviewsvc "github.com/YinkTech/peerreview/internal/app/services/reviews"
	"github.com/YinkTech/peerreview/internal/app/store/audit"
	credentialstore "github.com/YinkTech/peerreview/internal/app/store/credentials"
	groupstore "github.com/YinkTech/peerreview/internal/app/store/groups"
	reviewstore "github.com/YinkTech/peerreview/internal/app/store/reviews"
	"github.com/YinkTech/peerreview/internal/app/store/sessions"
	userstore "github.com/YinkTech/peerreview/internal/app/store/users"
	"github.com/YinkTech/peerreview/internal/app/system/auditlog"
	"github.com/YinkTech/peerreview/internal/app/system/identity"
	"github.com/YinkTech/peerreview/internal/app/system/timeouts"
	"github.com/YinkTech/peerreview/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the stores and services and starts the averages refresher.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	loc, err := appCfg.Location()
	if err != nil {
		return err
	}

	db := deps.MongoDatabase
	rt := deps.Runtime

	rt.Users = userstore.New(db)
	rt.Groups = groupstore.New(db)
	rt.Reviews = reviewstore.New(db)

	rt.Audit = auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	rt.Identity = identity.New(credentialstore.New(db), sessions.New(db), identity.Config{
		Secret:   []byte(appCfg.TokenSecret),
		TokenTTL: appCfg.TokenTTL,
	}, logger)

	rt.ReviewSvc = reviewsvc.New(rt.Reviews, rt.Users, logger, reviewsvc.Options{Location: loc})
	rt.GroupSvc = groupsvc.New(rt.Groups, rt.Users, rt.Reviews, rt.Identity, rt.Audit, logger)

	refresher, err := workers.NewAveragesRefresher(rt.GroupSvc, logger, appCfg.AveragesRefreshCron, timeouts.Long())
	if err != nil {
		return err
	}
	rt.Refresher = refresher
	rt.ReviewSvc.SetNotifier(refresher)

	// Warm the cached averages before serving; a failure is logged, not fatal.
	warmCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	_, _ = refresher.RefreshNow(warmCtx)
	cancel()
	refresher.Start()

	rt.stopWatch = watchIdentity(rt.Identity, logger)

	logger.Info("peer review runtime ready",
		zap.String("review_timezone", loc.String()),
		zap.Bool("unique_review_per_day", appCfg.ReviewUniquePerDay))
	return nil
}

// watchIdentity logs identity changes until the returned func is called.
func watchIdentity(g *identity.Gateway, logger *zap.Logger) func() {
	changes, cancel := g.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for c := range changes {
			logger.Debug("identity changed",
				zap.String("kind", string(c.Kind)),
				zap.String("user_id", c.UserID.Hex()),
				zap.Time("at", c.At))
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
