// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	groupsvc "github.com/YinkTech/peerreview/internal/app/services/groups"
	reviewsvc "github.com/YinkTech/peerreview/internal/app/services/reviews"
	groupstore "github.com/YinkTech/peerreview/internal/app/store/groups"
	reviewstore "github.com/YinkTech/peerreview/internal/app/store/reviews"
	userstore "github.com/YinkTech/peerreview/internal/app/store/users"
	"github.com/YinkTech/peerreview/internal/app/system/auditlog"
	"github.com/YinkTech/peerreview/internal/app/system/identity"
	"github.com/YinkTech/peerreview/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
// WAFFLE passes DBDeps by value to each hook, so the services built in
// Startup live behind the Runtime pointer.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Runtime       *Runtime
}

// Runtime holds the stores and services shared by every feature handler.
// Startup fills it in; BuildHandler and Shutdown read it.
type Runtime struct {
	Users   *userstore.Store
	Groups  *groupstore.Store
	Reviews *reviewstore.Store

	Identity  *identity.Gateway
	ReviewSvc *reviewsvc.Service
	GroupSvc  *groupsvc.Service
	Audit     *auditlog.Logger
	Refresher *workers.AveragesRefresher

	stopWatch func()
}
