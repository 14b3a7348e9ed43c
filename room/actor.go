/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Seednode/senryu/senryu"
	"github.com/Seednode/senryu/store"
)

const (
	mailboxSize     = 64
	maxCodeAttempts = 5
)

type request struct {
	ctx   context.Context
	conn  Conn
	cmd   senryu.Command
	reply chan result
}

type result struct {
	res *Result
	err error
}

// outbound is an event waiting to be fanned out.
type outbound struct {
	event   senryu.Event
	exclude string
}

// Actor serializes every command for one room. Nothing outside run touches
// room or sessions.
type Actor struct {
	id          string
	game        *senryu.Game
	repo        store.Repository
	leaderboard store.Leaderboard
	logger      Logger
	timeout     time.Duration

	room     *senryu.Room
	sessions *Sessions

	requests  chan request
	leaves    chan Conn
	snapshots chan chan *senryu.Room
	retire    chan time.Time
	stop      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once

	mu         sync.RWMutex
	lastActive time.Time
	bound      int
	loadErr    error
}

func newActor(id string, game *senryu.Game, m *Manager) *Actor {
	return &Actor{
		id:          id,
		game:        game,
		repo:        m.repo,
		leaderboard: m.leaderboard,
		logger:      m.logger,
		timeout:     m.storeTimeout,
		sessions:    NewSessions(),
		requests:    make(chan request, mailboxSize),
		leaves:      make(chan Conn, mailboxSize),
		snapshots:   make(chan chan *senryu.Room),
		retire:      make(chan time.Time, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		lastActive:  time.Now(),
	}
}

func (a *Actor) run() {
	defer close(a.done)

	if err := a.load(); err != nil {
		a.logger.Printf("ROOM: Failed to load %s: %v", a.id, err)

		a.mu.Lock()
		a.loadErr = err
		a.mu.Unlock()

		return
	}

	for {
		select {
		case req := <-a.requests:
			a.handle(req)
		case c := <-a.leaves:
			a.disconnect(c)
		case ch := <-a.snapshots:
			ch <- a.room.Clone()
		case cutoff := <-a.retire:
			// Checked here, with nothing in flight, so a command that was
			// queued after the reaper looked is still applied.
			if a.sessions.Len() == 0 && len(a.requests) == 0 && len(a.leaves) == 0 && a.idle(cutoff) {
				a.logger.Printf("ROOM: Unloading idle room %s", a.id)
				return
			}
		case <-a.stop:
			a.sessions.CloseAll()
			a.setBound()
			return
		}
	}
}

// load restores persisted state. A room that was never saved stays nil
// and only accepts create.
func (a *Actor) load() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	room, err := a.repo.GetRoom(ctx, &store.GetRoomInput{RoomID: a.id})
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		return nil
	case err != nil:
		return err
	}

	a.room = room
	return nil
}

func (a *Actor) handle(req request) {
	a.touch()

	var playerID string
	if req.conn != nil {
		playerID, _ = a.sessions.PlayerID(req.conn)
	}

	if playerID != "" && rebinds(playerID, req.cmd) {
		a.reject(req, senryu.ErrInvalidState)
		return
	}

	out, err := a.game.Apply(a.room, playerID, req.cmd)
	if err == nil {
		err = a.prepare(req.ctx, out)
	}
	if err != nil {
		a.reject(req, err)
		return
	}

	if out.Changed {
		a.room = out.Room
		a.persist()
	}

	if out.PlayerID != "" && req.conn != nil {
		if old := a.sessions.Register(out.PlayerID, req.conn); old != nil {
			old.Close()
		}
	}

	var queue []outbound
	for _, e := range out.Reply {
		queue = append(queue, a.send(req.conn, e)...)
	}
	for _, e := range out.Broadcast {
		queue = append(queue, outbound{event: e, exclude: out.Exclude})
	}
	a.fanOut(queue)
	a.setBound()

	req.reply <- result{res: &Result{Room: a.room.Clone(), PlayerID: out.PlayerID}}
}

// rebinds reports whether cmd would move a connection already bound to
// playerID over to another player.
func rebinds(playerID string, cmd senryu.Command) bool {
	switch c := cmd.(type) {
	case *senryu.JoinRoom:
		return true
	case *senryu.Reconnect:
		return c.PlayerID != playerID
	}
	return false
}

// prepare runs the side effects an outcome needs before it may be
// committed: reserving the join code of a new room and publishing to the
// leaderboard. An error here rejects the command.
func (a *Actor) prepare(ctx context.Context, out *senryu.Outcome) error {
	if a.room == nil && out.Changed {
		code, err := a.reserveCode(ctx, out.Room.Code)
		if err != nil {
			return err
		}
		out.Room.Code = code
	}

	if out.Ranking != nil {
		if err := a.leaderboard.Publish(ctx, &store.PublishInput{Entry: out.Ranking}); err != nil {
			a.logger.Printf("ROOM: Failed to publish ranking %s for %s: %v", out.Ranking.ID, a.id, err)
			return ErrLeaderboardUnavailable
		}
	}

	return nil
}

// reserveCode claims requested, or a generated code if requested is empty.
func (a *Actor) reserveCode(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		code := store.NormalizeCode(requested)
		if !validCode(code) {
			return "", senryu.ErrInvalidPayload
		}

		err := a.repo.ReserveCode(ctx, &store.ReserveCodeInput{Code: code, RoomID: a.id})
		switch {
		case errors.Is(err, store.ErrCodeTaken):
			return "", ErrCodeTaken
		case err != nil:
			a.logger.Printf("ROOM: Failed to reserve code %s for %s: %v", code, a.id, err)
			return "", ErrRoomUnavailable
		}

		return code, nil
	}

	for i := 0; i < maxCodeAttempts; i++ {
		code := newCode()

		err := a.repo.ReserveCode(ctx, &store.ReserveCodeInput{Code: code, RoomID: a.id})
		switch {
		case errors.Is(err, store.ErrCodeTaken):
			continue
		case err != nil:
			a.logger.Printf("ROOM: Failed to reserve code %s for %s: %v", code, a.id, err)
			return "", ErrRoomUnavailable
		}

		return code, nil
	}

	return "", ErrCodeTaken
}

// persist writes the committed room. A failed write is logged and the
// in-memory room stays authoritative.
func (a *Actor) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.repo.SaveRoom(ctx, &store.SaveRoomInput{Room: a.room}); err != nil {
		a.logger.Printf("ROOM: Failed to save %s: %v", a.id, err)
	}
}

func (a *Actor) reject(req request, err error) {
	a.fanOut(a.send(req.conn, senryu.ErrorEvent(err)))
	a.setBound()

	req.reply <- result{err: err}
}

// send delivers e to a single connection. If that fails and the
// connection was bound, the returned player_offline event must be fanned out.
func (a *Actor) send(c Conn, e senryu.Event) []outbound {
	if c == nil {
		return nil
	}

	data, err := e.Marshal()
	if err != nil {
		a.logger.Printf("ROOM: Failed to encode %s for %s: %v", e.Type, a.id, err)
		return nil
	}

	if err := c.Send(data); err != nil {
		c.Close()
		if id, ok := a.sessions.Unregister(c); ok {
			return []outbound{offline(id)}
		}
	}

	return nil
}

// fanOut broadcasts queued events in order, queueing a player_offline for
// every connection a broadcast evicts.
func (a *Actor) fanOut(queue []outbound) {
	for len(queue) > 0 {
		o := queue[0]
		queue = queue[1:]

		data, err := o.event.Marshal()
		if err != nil {
			a.logger.Printf("ROOM: Failed to encode %s for %s: %v", o.event.Type, a.id, err)
			continue
		}

		for _, id := range a.sessions.Broadcast(data, o.exclude) {
			a.logger.Printf("ROOM: Evicted player %s from %s", id, a.id)
			queue = append(queue, offline(id))
		}
	}
}

func offline(playerID string) outbound {
	return outbound{event: senryu.Event{
		Type:    senryu.EvtPlayerOffline,
		Payload: senryu.PlayerPresencePayload{PlayerID: playerID},
	}}
}

func (a *Actor) disconnect(c Conn) {
	a.touch()

	if id, ok := a.sessions.Unregister(c); ok {
		a.fanOut([]outbound{offline(id)})
	}
	a.setBound()
}

func (a *Actor) touch() {
	a.mu.Lock()
	a.lastActive = time.Now()
	a.mu.Unlock()
}

func (a *Actor) setBound() {
	a.mu.Lock()
	a.bound = a.sessions.Len()
	a.mu.Unlock()
}

// idle reports whether the actor has no sessions and has seen no traffic
// since cutoff. Outside run this is only a hint; see askRetire.
func (a *Actor) idle(cutoff time.Time) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.bound == 0 && a.lastActive.Before(cutoff)
}

func (a *Actor) failure() error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.loadErr == nil {
		return ErrActorStopped
	}
	return fmt.Errorf("%w: %v", ErrRoomUnavailable, a.loadErr)
}

// do enqueues cmd and waits for it to be applied.
func (a *Actor) do(ctx context.Context, conn Conn, cmd senryu.Command) (*Result, error) {
	req := request{
		ctx:   ctx,
		conn:  conn,
		cmd:   cmd,
		reply: make(chan result, 1),
	}

	select {
	case a.requests <- req:
	case <-a.done:
		return nil, a.failure()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-req.reply:
		return r.res, r.err
	case <-a.done:
		// A reply sent before the actor exited wins over the exit.
		select {
		case r := <-req.reply:
			return r.res, r.err
		default:
		}
		return nil, a.failure()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Actor) leave(c Conn) {
	select {
	case a.leaves <- c:
	case <-a.done:
	}
}

func (a *Actor) snapshot(ctx context.Context) (*senryu.Room, error) {
	ch := make(chan *senryu.Room, 1)

	select {
	case a.snapshots <- ch:
	case <-a.done:
		return nil, a.failure()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case room := <-ch:
		return room, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// askRetire asks the actor to exit if it is still idle once it gets to
// the request. It does not wait.
func (a *Actor) askRetire(cutoff time.Time) {
	select {
	case a.retire <- cutoff:
	default:
	}
}

// stopped reports whether run has returned.
func (a *Actor) stopped() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

func (a *Actor) shutdown() {
	a.stopOnce.Do(func() {
		close(a.stop)
	})
}
