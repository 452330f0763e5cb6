package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeRecomputer struct {
	mu      sync.Mutex
	one     []primitive.ObjectID
	all     int
	err     error
	touched chan struct{}
}

func newFakeRecomputer() *fakeRecomputer {
	return &fakeRecomputer{touched: make(chan struct{}, 16)}
}

func (f *fakeRecomputer) RecomputeAverages(_ context.Context, id primitive.ObjectID) (models.RubricAverages, error) {
	f.mu.Lock()
	f.one = append(f.one, id)
	f.mu.Unlock()
	f.touched <- struct{}{}
	return models.RubricAverages{}, f.err
}

func (f *fakeRecomputer) RecomputeAll(context.Context) (int, error) {
	f.mu.Lock()
	f.all++
	f.mu.Unlock()
	f.touched <- struct{}{}
	return 3, f.err
}

func waitTouched(t *testing.T, f *fakeRecomputer) {
	t.Helper()
	select {
	case <-f.touched:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refresh")
	}
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"", false},
		{"@every 15m", false},
		{"*/5 * * * *", false},
		{"@hourly", false},
		{"not a schedule", true},
		{"61 * * * *", true},
	}
	for _, tt := range tests {
		err := ValidateSchedule(tt.spec)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateSchedule(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
		}
	}
}

func TestNewAveragesRefresher_RejectsBadSpec(t *testing.T) {
	if _, err := NewAveragesRefresher(newFakeRecomputer(), zap.NewNop(), "bogus", 0); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestTrigger_RefreshesGroup(t *testing.T) {
	f := newFakeRecomputer()
	w, err := NewAveragesRefresher(f, zap.NewNop(), "", time.Second)
	if err != nil {
		t.Fatalf("NewAveragesRefresher: %v", err)
	}
	w.Start()
	defer w.Stop()

	g := primitive.NewObjectID()
	w.Trigger(g)
	waitTouched(t, f)

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.one) != 1 || f.one[0] != g {
		t.Errorf("refreshed = %v, want [%s]", f.one, g.Hex())
	}
}

func TestTrigger_FailureDoesNotStopLoop(t *testing.T) {
	f := newFakeRecomputer()
	f.err = errors.New("store down")
	w, _ := NewAveragesRefresher(f, zap.NewNop(), "", time.Second)
	w.Start()
	defer w.Stop()

	w.Trigger(primitive.NewObjectID())
	waitTouched(t, f)
	w.Trigger(primitive.NewObjectID())
	waitTouched(t, f)
}

func TestTrigger_NeverBlocks(t *testing.T) {
	w, _ := NewAveragesRefresher(newFakeRecomputer(), zap.NewNop(), "", time.Second)
	// Not started: nothing drains the queue.
	done := make(chan struct{})
	go func() {
		for i := 0; i < queueSize*2; i++ {
			w.Trigger(primitive.NewObjectID())
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Trigger blocked on a full queue")
	}
	w.Trigger(primitive.NilObjectID)
}

func TestRefreshNow(t *testing.T) {
	f := newFakeRecomputer()
	w, _ := NewAveragesRefresher(f, zap.NewNop(), "@every 1h", time.Second)
	n, err := w.RefreshNow(context.Background())
	if err != nil || n != 3 {
		t.Errorf("RefreshNow = %d, %v", n, err)
	}

	boom := errors.New("store down")
	f.err = boom
	if _, err := w.RefreshNow(context.Background()); !errors.Is(err, boom) {
		t.Errorf("RefreshNow error = %v, want boom", err)
	}
}

func TestScheduledRefresh_RecomputesAll(t *testing.T) {
	f := newFakeRecomputer()
	w, _ := NewAveragesRefresher(f, zap.NewNop(), "@every 1h", time.Second)
	w.refreshAll()
	waitTouched(t, f)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.all != 1 {
		t.Errorf("RecomputeAll calls = %d, want 1", f.all)
	}
}

func TestStop_Idempotent(t *testing.T) {
	w, _ := NewAveragesRefresher(newFakeRecomputer(), zap.NewNop(), "@every 1h", time.Second)
	w.Start()
	w.Stop()
	w.Stop()
}
