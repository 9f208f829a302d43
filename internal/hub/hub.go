// Package hub runs the room coordinator: one goroutine owns every room,
// session and profile, and processes inbox messages one at a time.
package hub

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/leedalei/lol-random-hero-selector/internal/engine"
	"github.com/leedalei/lol-random-hero-selector/internal/identity"
	"github.com/leedalei/lol-random-hero-selector/internal/lobby"
	"github.com/leedalei/lol-random-hero-selector/internal/metrics"
	"github.com/leedalei/lol-random-hero-selector/internal/session"
	wire "github.com/leedalei/lol-random-hero-selector/pkg/types"
	"go.uber.org/zap"
)

var ErrStopped = errors.New("hub stopped")

// ErrIdentityCollision marks a second connection resolving to an identity
// that already has a live session. It is only logged; the older connection
// is closed.
var ErrIdentityCollision = errors.New("identity already connected")

type Options struct {
	RollDelay     time.Duration
	SweepInterval time.Duration
	IdleTimeout   time.Duration
	Pool          []engine.Hero

	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Now       func() time.Time
	Rand      *rand.Rand
	NewRoomID func() string
}

func (o Options) withDefaults() Options {
	if o.RollDelay <= 0 {
		o.RollDelay = 2 * time.Second
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = 30 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 180 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.Discard()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Rand == nil {
		o.Rand = engine.NewRand()
	}
	if o.NewRoomID == nil {
		o.NewRoomID = lobby.NewRoomID
	}
	return o
}

// Command is a validated client request. Only the fields relevant to Type are set.
type Command struct {
	Type     string
	RoomID   string
	Name     string
	Settings lobby.SettingsPatch
	Show     bool
}

type HubMsg interface{ isHubMsg() }

// Connect registers Conn as the live connection of Identity, evicting an
// older one. Done is closed once the session is active.
type Connect struct {
	Identity identity.Identity
	Conn     session.Conn
	Done     chan struct{}
}

type Disconnect struct {
	Identity identity.Identity
	Conn     session.Conn
}

type FromClient struct {
	Identity identity.Identity
	Conn     session.Conn
	Cmd      Command
}

type GetRoom struct {
	RoomID string
	Reply  chan *wire.RoomSummary
}

type ListRooms struct {
	Reply chan []wire.RoomSummary
}

type GetStats struct {
	Reply chan wire.ServiceStats
}

// Sweep runs the idle sweep now. Done may be nil.
type Sweep struct {
	Done chan struct{}
}

type Shutdown struct{}

type rollDue struct {
	RoomID string
}

func (Connect) isHubMsg()    {}
func (Disconnect) isHubMsg() {}
func (FromClient) isHubMsg() {}
func (GetRoom) isHubMsg()    {}
func (ListRooms) isHubMsg()  {}
func (GetStats) isHubMsg()   {}
func (Sweep) isHubMsg()      {}
func (Shutdown) isHubMsg()   {}
func (rollDue) isHubMsg()    {}

type pendingRoll struct {
	timer    *time.Timer
	settings lobby.Settings
}

type Hub struct {
	inbox  chan HubMsg
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	opts Options
	log  *zap.Logger
	m    *metrics.Metrics

	rooms    *lobby.Store
	sessions *session.Registry
	profiles *session.Profiles
	pub      *publisher
	rolls    map[string]pendingRoll
}

func NewHub(parent context.Context, opts Options) *Hub {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(parent)

	sessions := session.NewRegistry()
	log := opts.Logger.With(zap.String("module", "hub"))
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		opts:     opts,
		log:      log,
		m:        opts.Metrics,
		rooms:    lobby.NewStore(lobby.WithClock(opts.Now), lobby.WithIDGenerator(opts.NewRoomID)),
		sessions: sessions,
		profiles: session.NewProfiles(),
		pub:      &publisher{sessions: sessions, log: log},
		rolls:    make(map[string]pendingRoll),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed when the hub goroutine has exited.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) loop() {
	defer close(h.done)

	ticker := time.NewTicker(h.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case <-ticker.C:
			h.sweep()

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Connect:
				h.connect(msg.Identity, msg.Conn)
				close(msg.Done)

			case Disconnect:
				h.disconnect(msg.Identity, msg.Conn)

			case FromClient:
				h.route(msg)

			case rollDue:
				h.completeRoll(msg.RoomID)

			case GetRoom:
				room, ok := h.rooms.Get(msg.RoomID)
				if !ok {
					msg.Reply <- nil
					break
				}
				s := room.Summary()
				msg.Reply <- &s

			case ListRooms:
				all := h.rooms.All()
				out := make([]wire.RoomSummary, 0, len(all))
				for _, r := range all {
					out = append(out, r.Summary())
				}
				msg.Reply <- out

			case GetStats:
				msg.Reply <- wire.ServiceStats{
					RoomCount:          h.rooms.Len(),
					ActiveSessionCount: h.sessions.Count(),
					Timestamp:          h.opts.Now(),
				}

			case Sweep:
				h.sweep()
				if msg.Done != nil {
					close(msg.Done)
				}

			case Shutdown:
				h.shutdown()
				h.cancel()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for id, pr := range h.rolls {
		pr.timer.Stop()
		delete(h.rolls, id)
	}
	h.sessions.Each(func(s *session.Session) {
		s.Conn.Close("server shutting down")
	})
	h.log.Info("hub stopped", zap.Int("rooms", h.rooms.Len()), zap.Int("sessions", h.sessions.Count()))
}

// post delivers m unless ctx or the hub is done first.
func (h *Hub) post(ctx context.Context, m HubMsg) error {
	select {
	case h.inbox <- m:
		return nil
	case <-h.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func await[T any](ctx context.Context, h *Hub, reply <-chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-h.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Connect blocks until conn is the active connection of id.
func (h *Hub) Connect(ctx context.Context, id identity.Identity, conn session.Conn) error {
	done := make(chan struct{})
	if err := h.post(ctx, Connect{Identity: id, Conn: conn, Done: done}); err != nil {
		return err
	}
	_, err := await[struct{}](ctx, h, done)
	return err
}

// Disconnect is fire-and-forget; it is dropped once the hub has stopped.
func (h *Hub) Disconnect(id identity.Identity, conn session.Conn) {
	_ = h.post(context.Background(), Disconnect{Identity: id, Conn: conn})
}

func (h *Hub) Dispatch(ctx context.Context, id identity.Identity, conn session.Conn, cmd Command) error {
	return h.post(ctx, FromClient{Identity: id, Conn: conn, Cmd: cmd})
}

// RoomSummary reports false when no room has that id.
func (h *Hub) RoomSummary(ctx context.Context, roomID string) (wire.RoomSummary, bool, error) {
	reply := make(chan *wire.RoomSummary, 1)
	if err := h.post(ctx, GetRoom{RoomID: roomID, Reply: reply}); err != nil {
		return wire.RoomSummary{}, false, err
	}
	s, err := await[*wire.RoomSummary](ctx, h, reply)
	if err != nil || s == nil {
		return wire.RoomSummary{}, false, err
	}
	return *s, true, nil
}

func (h *Hub) Rooms(ctx context.Context) ([]wire.RoomSummary, error) {
	reply := make(chan []wire.RoomSummary, 1)
	if err := h.post(ctx, ListRooms{Reply: reply}); err != nil {
		return nil, err
	}
	return await[[]wire.RoomSummary](ctx, h, reply)
}

func (h *Hub) Stats(ctx context.Context) (wire.ServiceStats, error) {
	reply := make(chan wire.ServiceStats, 1)
	if err := h.post(ctx, GetStats{Reply: reply}); err != nil {
		return wire.ServiceStats{}, err
	}
	return await[wire.ServiceStats](ctx, h, reply)
}

// Stop shuts the hub down and waits for its goroutine, or for ctx.
func (h *Hub) Stop(ctx context.Context) error {
	select {
	case h.inbox <- Shutdown{}:
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
