package connector

import (
	"log/slog"
	"sync"
)

// subscriptionBuffer sizes each subscriber channel. An order produces a
// handful of lifecycle events, so a consumer has to stop draining
// entirely before delivery is at risk.
const subscriptionBuffer = 64

// Subscription is a disposable handle on a venue's order-event stream.
// Events arrive on C until Close is called. Close is idempotent.
type Subscription struct {
	hub   *Hub
	id    uint64
	kinds map[EventKind]struct{} // nil means all kinds
	ch    chan OrderEvent
	once  sync.Once
}

// C returns the event channel. It is closed when the subscription or
// its hub is closed.
func (s *Subscription) C() <-chan OrderEvent {
	return s.ch
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	if s.hub != nil {
		s.hub.remove(s.id)
	}
	s.closeChan()
}

func (s *Subscription) closeChan() {
	s.once.Do(func() {
		close(s.ch)
	})
}

func (s *Subscription) wants(k EventKind) bool {
	if s.kinds == nil {
		return true
	}
	_, ok := s.kinds[k]
	return ok
}

// Hub fans order events out to subscribers. Venue implementations embed
// one and publish every lifecycle event through it.
type Hub struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
}

// NewHub creates an event hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		subs:   make(map[uint64]*Subscription),
	}
}

// Subscribe registers an observer for the given event kinds (all kinds
// when none are given). Subscribing to a closed hub returns a handle
// whose channel is already closed.
func (h *Hub) Subscribe(kinds ...EventKind) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscription{
		hub: h,
		ch:  make(chan OrderEvent, subscriptionBuffer),
	}
	if len(kinds) > 0 {
		sub.kinds = make(map[EventKind]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}

	if h.closed {
		sub.closeChan()
		return sub
	}

	h.nextID++
	sub.id = h.nextID
	h.subs[sub.id] = sub
	return sub
}

// Publish delivers an event to every subscriber interested in its kind.
// Delivery never blocks; a subscriber that stopped draining its channel
// loses the event and a warning is logged.
func (h *Hub) Publish(ev OrderEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	for _, sub := range h.subs {
		if !sub.wants(ev.Kind) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			h.logger.Warn("subscriber not draining, dropping order event",
				"kind", ev.Kind.String(),
				"order_id", ev.OrderID,
			)
		}
	}
}

// Close shuts the hub down and closes every subscriber channel.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = make(map[uint64]*Subscription)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.closeChan()
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}
