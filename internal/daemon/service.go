// Package daemon provides the long-running background subscription monitor.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/theirongolddev/subtrack/internal/ledger"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/pipeline"
	"github.com/theirongolddev/subtrack/internal/store"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Event types.
const (
	EventSnapshot    = "snapshot"
	EventChanged     = "subscriptions_changed"
	EventNextPayment = "next_payment"
)

// Config controls the daemon runtime behavior.
type Config struct {
	// Store is polled for the persisted subscription collection.
	Store        store.KV
	DataDir      string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Logger       *slog.Logger
	Now          func() time.Time
}

// NextPayment is the upcoming charge in a Snapshot.
type NextPayment struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	DaysUntil int             `json:"days_until"`
	Label     string          `json:"label"`
}

// Snapshot is a compact spend state for status/event payloads.
type Snapshot struct {
	At            time.Time       `json:"at"`
	ActiveCount   int             `json:"active_count"`
	CategoryCount int             `json:"category_count"`
	TotalMonthly  decimal.Decimal `json:"total_monthly"`
	TotalYearly   decimal.Decimal `json:"total_yearly"`
	Next          *NextPayment    `json:"next_payment,omitempty"`

	ids []string
}

// Delta captures what changed between polls.
type Delta struct {
	Added       []string        `json:"added,omitempty"`
	Removed     []string        `json:"removed,omitempty"`
	Monthly     decimal.Decimal `json:"monthly"`
	NextChanged bool            `json:"next_changed,omitempty"`
}

func (d Delta) isZero() bool {
	return len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		d.Monthly.IsZero() &&
		!d.NextChanged
}

func (d Delta) collectionChanged() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || !d.Monthly.IsZero()
}

// Event is emitted whenever the snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	StoredAt        time.Time `json:"stored_at,omitzero"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DataDir         string    `json:"data_dir,omitempty"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	log *slog.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	storedAt    time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	subs        []model.Subscription
	nextEventID int64
	events      []Event

	nextSubID   int
	subscribers map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Service{
		cfg:         cfg,
		log:         cfg.Logger.With("component", "daemon"),
		startedAt:   cfg.Now(),
		subscribers: make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/subscriptions", s.handleSubscriptions)
	mux.HandleFunc("GET /v1/calendar", s.handleCalendar)
	mux.HandleFunc("GET /v1/breakdown", s.handleBreakdown)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	return mux
}

// Run serves the HTTP API and polls the store until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s.pollOnce(gctx)
			}
		}
	})
	return g.Wait()
}

func (s *Service) pollOnce(ctx context.Context) {
	now := s.cfg.Now()
	subs, err := ledger.Load(ctx, s.cfg.Store)
	if errors.Is(err, store.ErrNotFound) {
		subs, err = nil, nil
	}
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.log.Warn("poll failed", "error", err)
		return
	}

	snap := snapshotFrom(subs, now)
	storedAt := s.readStoredAt(ctx)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.subs = subs
	s.lastPollAt = now
	s.storedAt = storedAt
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventSnapshot, Timestamp: now, Snapshot: snap}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		typ := EventNextPayment
		if delta.collectionChanged() {
			typ = EventChanged
		}
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: typ, Timestamp: now, Snapshot: snap, Delta: delta}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.log.Debug("publishing event", "type", ev.Type, "id", ev.ID)
		s.publishEvent(ev)
	}
}

func snapshotFrom(subs []model.Subscription, at time.Time) Snapshot {
	sum := pipeline.Summarize(subs)
	snap := Snapshot{
		At:            at,
		ActiveCount:   sum.ActiveCount,
		CategoryCount: sum.CategoryCount,
		TotalMonthly:  sum.TotalMonthly,
		TotalYearly:   sum.TotalYearly,
		ids:           make([]string, len(subs)),
	}
	for i, sub := range subs {
		snap.ids[i] = sub.ID
	}
	if up, ok := pipeline.NextPayment(subs, at); ok {
		snap.Next = &NextPayment{
			ID:        up.Subscription.ID,
			Name:      up.Subscription.Name,
			Price:     up.Subscription.Price,
			DaysUntil: up.DaysUntil,
			Label:     pipeline.DueLabel(up.DaysUntil),
		}
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	d := Delta{Monthly: curr.TotalMonthly.Sub(prev.TotalMonthly)}
	for _, id := range curr.ids {
		if !slices.Contains(prev.ids, id) {
			d.Added = append(d.Added, id)
		}
	}
	for _, id := range prev.ids {
		if !slices.Contains(curr.ids, id) {
			d.Removed = append(d.Removed, id)
		}
	}
	switch {
	case (prev.Next == nil) != (curr.Next == nil):
		d.NextChanged = true
	case prev.Next != nil:
		d.NextChanged = prev.Next.ID != curr.Next.ID || prev.Next.DaysUntil != curr.Next.DaysUntil
	}
	return d
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

// readStoredAt reports when the collection was last written, or the zero time
// when the store does not track it.
func (s *Service) readStoredAt(ctx context.Context) time.Time {
	st, ok := s.cfg.Store.(store.Stamper)
	if !ok {
		return time.Time{}
	}
	t, err := st.UpdatedAt(ctx, ledger.StorageKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Debug("reading store timestamp failed", "error", err)
		}
		return time.Time{}
	}
	return t
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		StoredAt:        s.storedAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DataDir:         s.cfg.DataDir,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subscribers),
	}
}

func (s *Service) currentSubs() []model.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.subs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleSubscriptions(w http.ResponseWriter, _ *http.Request) {
	subs := s.currentSubs()
	if subs == nil {
		subs = []model.Subscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Service) handleCalendar(w http.ResponseWriter, r *http.Request) {
	now := s.cfg.Now()
	cur := pipeline.CursorAt(now)
	if m := r.URL.Query().Get("month"); m != "" {
		var err error
		if cur, err = pipeline.ParseMonth(m); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, cur.Build(s.currentSubs(), now))
}

// Breakdown is served at /v1/breakdown.
type Breakdown struct {
	Summary    pipeline.Summary         `json:"summary"`
	Categories []pipeline.CategoryTotal `json:"categories"`
	Timeline   []pipeline.TimelinePoint `json:"timeline"`
}

func (s *Service) handleBreakdown(w http.ResponseWriter, _ *http.Request) {
	subs := s.currentSubs()
	writeJSON(w, http.StatusOK, Breakdown{
		Summary:    pipeline.Summarize(subs),
		Categories: pipeline.ByCategory(subs),
		Timeline:   pipeline.Timeline(subs),
	})
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: s.cfg.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, id)
}
