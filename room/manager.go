/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Seednode/senryu/senryu"
	"github.com/Seednode/senryu/store"
)

const (
	defaultStoreTimeout = 5 * time.Second
	maxDispatchAttempts = 3
)

// Config holds the dependencies of a Manager.
type Config struct {
	Repository  store.Repository
	Leaderboard store.Leaderboard
	Pools       senryu.PoolProvider
	Logger      Logger

	// IdleTimeout is how long an actor with no sessions is kept before the
	// reaper stops it. Zero disables reaping.
	IdleTimeout time.Duration

	// StoreTimeout bounds each load and save.
	StoreTimeout time.Duration

	// Seed makes dealing reproducible. Zero seeds from the clock.
	Seed int64

	MaxPlayers int
	Clock      senryu.Clock
	IDs        senryu.IDGenerator
}

// Manager holds the actors keyed by room id, so each room is its own
// isolated session. The registry holds no room data.
type Manager struct {
	mu     sync.Mutex
	actors map[string]*Actor
	closed bool

	repo         store.Repository
	leaderboard  store.Leaderboard
	pools        senryu.PoolProvider
	logger       Logger
	idleTimeout  time.Duration
	storeTimeout time.Duration
	seed         int64
	maxPlayers   int
	clock        senryu.Clock
	ids          senryu.IDGenerator

	stopReaper chan struct{}
	reaperDone chan struct{}
}

func NewManager(cfg *Config) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Repository == nil {
		return nil, errors.New("repository cannot be nil")
	}
	if cfg.Leaderboard == nil {
		return nil, errors.New("leaderboard cannot be nil")
	}

	m := &Manager{
		actors:       make(map[string]*Actor),
		repo:         cfg.Repository,
		leaderboard:  cfg.Leaderboard,
		pools:        cfg.Pools,
		logger:       cfg.Logger,
		idleTimeout:  cfg.IdleTimeout,
		storeTimeout: cfg.StoreTimeout,
		seed:         cfg.Seed,
		maxPlayers:   cfg.MaxPlayers,
		clock:        cfg.Clock,
		ids:          cfg.IDs,
		stopReaper:   make(chan struct{}),
		reaperDone:   make(chan struct{}),
	}
	if m.pools == nil {
		m.pools = senryu.DefaultPools()
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard, "", 0)
	}
	if m.storeTimeout <= 0 {
		m.storeTimeout = defaultStoreTimeout
	}
	if m.ids == nil {
		m.ids = senryu.UUIDGenerator{}
	}

	// Fail on bad wiring here rather than on the first room.
	if _, err := m.newGame(); err != nil {
		return nil, err
	}

	if m.idleTimeout > 0 {
		go m.reaperLoop()
	} else {
		close(m.reaperDone)
	}

	return m, nil
}

// newGame builds the rules engine for one actor. Each actor gets its own
// so dealers are never shared between goroutines.
func (m *Manager) newGame() (*senryu.Game, error) {
	return senryu.New(&senryu.Config{
		Pools:      m.pools,
		Dealer:     senryu.NewDealer(&senryu.DealerConfig{Seed: m.seed}),
		Clock:      m.clock,
		IDs:        m.ids,
		MaxPlayers: m.maxPlayers,
	})
}

// actor returns the live actor for id, starting one if needed. An actor
// that has exited, whether reaped or failed to load, is replaced.
func (m *Manager) actor(id string) (*Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	// An actor stays registered until run has returned, so a replacement
	// never loads while the old one can still save.
	if a, ok := m.actors[id]; ok && !a.stopped() {
		return a, nil
	}

	game, err := m.newGame()
	if err != nil {
		return nil, err
	}

	a := newActor(id, game, m)
	m.actors[id] = a
	go a.run()

	return a, nil
}

// lookup returns the live actor for id without starting one.
func (m *Manager) lookup(id string) (*Actor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.actors[id]
	return a, ok
}

// Dispatch applies cmd to the room, on behalf of conn if it is not nil.
// Replies and broadcasts go out through the room's sessions; the returned
// error is the one the issuing connection was sent.
func (m *Manager) Dispatch(ctx context.Context, roomID string, conn Conn, cmd senryu.Command) (*Result, error) {
	if roomID == "" {
		return nil, senryu.ErrRoomNotFound
	}

	// A create sent over a room's socket creates the room at that id.
	if c, ok := cmd.(*senryu.CreateRoom); ok && c.RoomID != roomID {
		create := *c
		create.RoomID = roomID
		cmd = &create
	}

	for attempt := 0; attempt < maxDispatchAttempts; attempt++ {
		a, err := m.actor(roomID)
		if err != nil {
			return nil, err
		}

		res, err := a.do(ctx, conn, cmd)
		if errors.Is(err, ErrActorStopped) {
			// Reaped between lookup and delivery; the next actor reloads.
			continue
		}

		return res, err
	}

	return nil, ErrActorStopped
}

// CreateRoom creates a room under a fresh id with conn, if not nil, bound
// to the host.
func (m *Manager) CreateRoom(ctx context.Context, conn Conn, cmd *senryu.CreateRoom) (*Result, error) {
	if cmd == nil {
		return nil, senryu.ErrInvalidPayload
	}

	c := *cmd
	c.RoomID = m.ids.NewID()

	return m.Dispatch(ctx, c.RoomID, conn, &c)
}

// Leave tells the room that conn has gone away.
func (m *Manager) Leave(roomID string, conn Conn) {
	if a, ok := m.lookup(roomID); ok {
		a.leave(conn)
	}
}

// Snapshot returns a copy of the room's current state. Rooms without a live
// actor are read straight from the store.
func (m *Manager) Snapshot(ctx context.Context, roomID string) (*senryu.Room, error) {
	if a, ok := m.lookup(roomID); ok {
		room, err := a.snapshot(ctx)
		if err == nil {
			if room == nil {
				return nil, senryu.ErrRoomNotFound
			}
			return room, nil
		}
		if !errors.Is(err, ErrActorStopped) {
			return nil, err
		}
	}

	room, err := m.repo.GetRoom(ctx, &store.GetRoomInput{RoomID: roomID})
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		return nil, senryu.ErrRoomNotFound
	case err != nil:
		m.logger.Printf("ROOM: Failed to read %s: %v", roomID, err)
		return nil, ErrRoomUnavailable
	}

	return room, nil
}

// RoomIDByCode resolves a join code.
func (m *Manager) RoomIDByCode(ctx context.Context, code string) (string, error) {
	code = store.NormalizeCode(code)
	if code == "" {
		return "", ErrCodeNotFound
	}

	id, err := m.repo.GetRoomIDByCode(ctx, &store.GetRoomIDByCodeInput{Code: code})
	switch {
	case errors.Is(err, store.ErrCodeNotFound):
		return "", ErrCodeNotFound
	case err != nil:
		m.logger.Printf("ROOM: Failed to resolve code %s: %v", code, err)
		return "", ErrRoomUnavailable
	}

	return id, nil
}

// Leaderboard lists published senryu, highest score first.
func (m *Manager) Leaderboard(ctx context.Context, limit int) ([]*senryu.RankingEntry, error) {
	entries, err := m.leaderboard.List(ctx, &store.ListInput{Limit: limit})
	if err != nil {
		m.logger.Printf("ROOM: Failed to list leaderboard: %v", err)
		return nil, ErrLeaderboardUnavailable
	}

	return entries, nil
}

// Active returns the number of live actors.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, a := range m.actors {
		if !a.stopped() {
			n++
		}
	}

	return n
}

// reap drops actors that have exited and asks every actor that looks idle
// since cutoff to exit. It returns how many it asked. An actor only leaves
// once it has confirmed it is idle with an empty mailbox.
func (m *Manager) reap(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, a := range m.actors {
		if a.stopped() {
			delete(m.actors, id)
			continue
		}
		if a.idle(cutoff) {
			a.askRetire(cutoff)
			n++
		}
	}

	return n
}

// reaperLoop periodically removes actors that have been idle longer than
// idleTimeout.
func (m *Manager) reaperLoop() {
	defer close(m.reaperDone)

	ticker := time.NewTicker(m.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.reap(time.Now().Add(-m.idleTimeout)); n > 0 {
				m.logger.Printf("ROOM: Asked %d idle rooms to unload", n)
			}
		case <-m.stopReaper:
			return
		}
	}
}

// Close stops the reaper and every actor, closing their sessions, and
// waits for them to exit. State is already persisted.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true

	actors := make([]*Actor, 0, len(m.actors))
	for id, a := range m.actors {
		actors = append(actors, a)
		delete(m.actors, id)
	}
	m.mu.Unlock()

	close(m.stopReaper)
	<-m.reaperDone

	for _, a := range actors {
		a.shutdown()
		<-a.done
	}
}
