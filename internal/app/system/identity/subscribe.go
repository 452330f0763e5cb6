package identity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ChangeKind says how the current identity changed.
type ChangeKind string

const (
	SignedIn  ChangeKind = "signed_in"
	SignedOut ChangeKind = "signed_out"
	Deleted   ChangeKind = "deleted"
)

// Change is one "current identity changed" notification.
type Change struct {
	Kind   ChangeKind
	UserID primitive.ObjectID
	At     time.Time
}

const subscriberBuffer = 16

// Subscribe registers for identity changes. The returned cancel func
// unregisters and closes the channel. A subscriber whose buffer is full
// misses events instead of blocking the gateway.
func (g *Gateway) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, subscriberBuffer)

	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.subs[id] = ch
	g.mu.Unlock()

	cancel := func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if c, ok := g.subs[id]; ok {
			delete(g.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (g *Gateway) publish(c Change) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, ch := range g.subs {
		select {
		case ch <- c:
		default:
			g.log.Warn("identity subscriber is full; dropping change",
				zap.Int("subscriber", id),
				zap.String("kind", string(c.Kind)),
				zap.String("user_id", c.UserID.Hex()))
		}
	}
}
