// internal/app/system/workers/averages.go
package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/YinkTech/peerreview/internal/domain/models"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Recomputer refreshes cached group averages.
type Recomputer interface {
	RecomputeAverages(ctx context.Context, groupID primitive.ObjectID) (models.RubricAverages, error)
	RecomputeAll(ctx context.Context) (int, error)
}

const queueSize = 64

// AveragesRefresher keeps groups' cached averages close to the live values.
// A cron schedule refreshes every group; Trigger refreshes one group soon
// after its reviews change.
type AveragesRefresher struct {
	svc     Recomputer
	log     *zap.Logger
	spec    string
	timeout time.Duration

	cron   *cron.Cron
	queue  chan primitive.ObjectID
	stopCh chan struct{}
	wg     sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

// ValidateSchedule reports whether spec is a usable cron schedule. An empty
// spec is valid and disables the scheduled refresh.
func ValidateSchedule(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}

// NewAveragesRefresher creates a refresher. spec is a standard cron
// expression or descriptor such as "@every 15m"; empty disables the
// scheduled run but Trigger still works. timeout bounds each recompute.
func NewAveragesRefresher(svc Recomputer, logger *zap.Logger, spec string, timeout time.Duration) (*AveragesRefresher, error) {
	if err := ValidateSchedule(spec); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	w := &AveragesRefresher{
		svc:     svc,
		log:     logger,
		spec:    spec,
		timeout: timeout,
		queue:   make(chan primitive.ObjectID, queueSize),
		stopCh:  make(chan struct{}),
	}
	if spec != "" {
		w.cron = cron.New(cron.WithLogger(cronLogger{logger}))
		if _, err := w.cron.AddFunc(spec, w.refreshAll); err != nil {
			return nil, fmt.Errorf("schedule averages refresh: %w", err)
		}
	}
	return w, nil
}

// Start begins the scheduled refresh and the trigger loop.
func (w *AveragesRefresher) Start() {
	w.startOnce.Do(func() {
		w.wg.Add(1)
		go w.run()
		if w.cron != nil {
			w.cron.Start()
		}
		w.log.Info("averages refresher started", zap.String("schedule", w.spec))
	})
}

// Stop waits for a running refresh to finish. Queued triggers are dropped.
func (w *AveragesRefresher) Stop() {
	w.stopOnce.Do(func() {
		if w.cron != nil {
			<-w.cron.Stop().Done()
		}
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("averages refresher stopped")
	})
}

// Trigger queues groupID for a refresh. It never blocks; when the queue is
// full the request is dropped and the next scheduled run catches up.
func (w *AveragesRefresher) Trigger(groupID primitive.ObjectID) {
	if groupID.IsZero() {
		return
	}
	select {
	case w.queue <- groupID:
	default:
		w.log.Warn("averages refresh queue full; dropping trigger",
			zap.String("group_id", groupID.Hex()))
	}
}

// RefreshNow recomputes every group synchronously. The scheduled run and
// the startup warm-up both go through it.
func (w *AveragesRefresher) RefreshNow(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := w.svc.RecomputeAll(ctx)
	if err != nil {
		w.log.Error("averages refresh incomplete",
			zap.Int("refreshed", n),
			zap.Error(err))
		return n, err
	}
	w.log.Info("averages refresh complete",
		zap.Int("refreshed", n),
		zap.Duration("took", time.Since(start)))
	return n, nil
}

func (w *AveragesRefresher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopCh:
			return
		case id := <-w.queue:
			w.refreshOne(id)
		}
	}
}

func (w *AveragesRefresher) refreshOne(groupID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if _, err := w.svc.RecomputeAverages(ctx, groupID); err != nil {
		w.log.Warn("refresh group averages failed",
			zap.String("group_id", groupID.Hex()),
			zap.Error(err))
		return
	}
	w.log.Debug("group averages refreshed", zap.String("group_id", groupID.Hex()))
}

func (w *AveragesRefresher) refreshAll() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	_, _ = w.RefreshNow(ctx)
}

// cronLogger routes cron's internal logging to zap.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, zap.Any("kv", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, zap.Error(err), zap.Any("kv", keysAndValues))
}
