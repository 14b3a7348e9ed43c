/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package senryu implements the rules of a Senryu room: who may do what in
// which phase, how cards are dealt and how scores add up. It is pure state
// transition logic; persistence and fan-out belong to the room package.
package senryu

import (
	"errors"
	"strings"
	"unicode"
)

const (
	DefaultMaxPlayers = 10
	MinPlayers        = 2
	MaxNameLength     = 20
	MaxSets           = 5
	MaxRedraws        = 5
	MaxTimeLimitSec   = 3600
)

var (
	ErrNilConfig = errors.New("config cannot be nil")
	ErrNilPools  = errors.New("card pools cannot be nil")
)

// Config holds the dependencies of a Game.
type Config struct {
	Pools      PoolProvider
	Dealer     *Dealer
	Clock      Clock
	IDs        IDGenerator
	MaxPlayers int
}

// Game applies commands to rooms. A Game holds no room state of its own,
// but its Dealer is not safe for concurrent use, so each room actor
// should own one.
type Game struct {
	pools      PoolProvider
	dealer     *Dealer
	clock      Clock
	ids        IDGenerator
	maxPlayers int
}

func New(cfg *Config) (*Game, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.Pools == nil {
		return nil, ErrNilPools
	}

	g := &Game{
		pools:      cfg.Pools,
		dealer:     cfg.Dealer,
		clock:      cfg.Clock,
		ids:        cfg.IDs,
		maxPlayers: cfg.MaxPlayers,
	}
	if g.dealer == nil {
		g.dealer = NewDealer(nil)
	}
	if g.clock == nil {
		g.clock = SystemClock{}
	}
	if g.ids == nil {
		g.ids = UUIDGenerator{}
	}
	if g.maxPlayers <= 0 {
		g.maxPlayers = DefaultMaxPlayers
	}

	return g, nil
}

// Outcome is the result of an accepted command.
type Outcome struct {
	// Room is the state after the command. When Changed is false it is the
	// room that was passed in.
	Room    *Room
	Changed bool

	// PlayerID is set when the issuing session becomes bound to a player
	// (create, join, reconnect).
	PlayerID string

	// Reply goes to the issuing session only.
	Reply []Event

	// Broadcast goes to every session except Exclude.
	Broadcast []Event
	Exclude   string

	// Ranking is set when a player publishes to the leaderboard.
	Ranking *RankingEntry
}

// Apply validates cmd against room and, if it is allowed, returns the
// resulting state. room is never modified; a rejected command returns an
// *Error and no outcome. room is nil for a room that has not been created.
func (g *Game) Apply(room *Room, playerID string, cmd Command) (*Outcome, error) {
	switch c := cmd.(type) {
	case nil:
		return nil, ErrInvalidPayload
	case *Ping:
		return &Outcome{Room: room, Reply: []Event{pongEvent(g.clock.Now())}}, nil
	case *CreateRoom:
		return g.create(room, c)
	}

	if room == nil {
		return nil, ErrRoomNotFound
	}

	next := room.Clone()
	out := &Outcome{Room: next, Changed: true}

	var err error
	switch c := cmd.(type) {
	case *JoinRoom:
		err = g.join(next, c, out)
	case *Reconnect:
		err = g.reconnect(next, c, out)
	case *StartGame:
		err = g.startGame(next, playerID, c, out)
	case *RedrawCard:
		err = g.redraw(next, playerID, c, out)
	case *StartPresentation:
		err = g.startPresentation(next, playerID, out)
	case *EndPresentation:
		err = g.endPresentation(next, playerID, out)
	case *SubmitScore:
		err = g.submitScore(next, playerID, c, out)
	case *NextPresenter:
		err = g.nextPresenter(next, playerID, out)
	case *PublishRanking:
		err = g.publishRanking(next, playerID, out)
	default:
		err = ErrUnknownCommand
	}
	if err != nil {
		return nil, err
	}

	if !out.Changed {
		out.Room = room
	}

	return out, nil
}

func roomStateEvent(playerID string, room *Room) Event {
	return Event{Type: EvtRoomState, Payload: RoomStatePayload{PlayerID: playerID, Room: room}}
}

func presentationEvent(t EventType, room *Room) Event {
	p := PresentationPayload{
		PresenterIndex: room.CurrentPresenterIndex,
		CurrentSet:     room.CurrentSet,
	}
	if presenter := room.Presenter(); presenter != nil {
		p.PresenterID = presenter.ID
	}
	return Event{Type: t, Payload: p}
}

func requireHost(room *Room, playerID string) error {
	p := room.Player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if !p.IsHost {
		return ErrHostOnly
	}
	return nil
}

// SanitizeName strips control characters and markup brackets, collapses
// whitespace and truncates to MaxNameLength runes.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsControl(r) || r == '<' || r == '>' {
			continue
		}
		b.WriteRune(r)
	}

	s := strings.Join(strings.Fields(b.String()), " ")
	if runes := []rune(s); len(runes) > MaxNameLength {
		s = strings.TrimSpace(string(runes[:MaxNameLength]))
	}

	return s
}

func (g *Game) create(room *Room, c *CreateRoom) (*Outcome, error) {
	if room != nil {
		return nil, ErrRoomExists
	}
	if c.RoomID == "" {
		return nil, ErrInvalidPayload
	}

	name := SanitizeName(c.HostName)
	if name == "" {
		return nil, ErrInvalidName
	}

	cfg := DefaultRoomConfig()
	host := &Player{
		ID:                g.ids.NewID(),
		Name:              name,
		IsHost:            true,
		RankingPreference: c.RankingPreference,
	}

	r := &Room{
		ID:              c.RoomID,
		Code:            c.Code,
		HostPlayerID:    host.ID,
		Players:         []*Player{host},
		State:           StateWaiting,
		TotalSets:       cfg.NumberOfSets,
		Config:          cfg,
		SubmittedScores: make(map[int]map[string]ScoreSubmission),
		RedrawsUsed:     map[string]SlotCounts{host.ID: {}},
		CreatedAt:       g.clock.Now(),
	}

	return &Outcome{
		Room:     r,
		Changed:  true,
		PlayerID: host.ID,
		Reply:    []Event{roomStateEvent(host.ID, r)},
	}, nil
}

func (g *Game) join(room *Room, c *JoinRoom, out *Outcome) error {
	if room.State != StateWaiting {
		return ErrInvalidState
	}
	if len(room.Players) >= g.maxPlayers {
		return ErrRoomFull
	}

	name := SanitizeName(c.PlayerName)
	if name == "" {
		return ErrInvalidName
	}
	for _, p := range room.Players {
		if strings.EqualFold(p.Name, name) {
			return ErrNameTaken
		}
	}

	p := &Player{
		ID:                g.ids.NewID(),
		Name:              name,
		RankingPreference: c.RankingPreference,
	}
	room.Players = append(room.Players, p)
	room.RedrawsUsed[p.ID] = SlotCounts{}

	out.PlayerID = p.ID
	out.Reply = append(out.Reply, roomStateEvent(p.ID, room))
	out.Broadcast = append(out.Broadcast, Event{
		Type:    EvtPlayerJoined,
		Payload: PlayerJoinedPayload{Player: p, Room: room},
	})
	out.Exclude = p.ID

	return nil
}

func (g *Game) reconnect(room *Room, c *Reconnect, out *Outcome) error {
	if room.Player(c.PlayerID) == nil {
		return ErrPlayerNotFound
	}

	out.Changed = false
	out.PlayerID = c.PlayerID
	out.Reply = append(out.Reply, roomStateEvent(c.PlayerID, room))
	out.Broadcast = append(out.Broadcast, Event{
		Type:    EvtPlayerOnline,
		Payload: PlayerPresencePayload{PlayerID: c.PlayerID},
	})
	out.Exclude = c.PlayerID

	return nil
}

func applyOverrides(cfg RoomConfig, o *ConfigOverrides) (RoomConfig, error) {
	if o == nil {
		return cfg, nil
	}

	limit := func(dst *int, v *int, upper int) error {
		if v == nil {
			return nil
		}
		if *v < 0 || *v > upper {
			return ErrInvalidConfig
		}
		*dst = *v
		return nil
	}

	if err := limit(&cfg.PresentationTimeLimitSec, o.PresentationTimeLimitSec, MaxTimeLimitSec); err != nil {
		return cfg, err
	}
	if err := limit(&cfg.PreparationTimeLimitSec, o.PreparationTimeLimitSec, MaxTimeLimitSec); err != nil {
		return cfg, err
	}
	if err := limit(&cfg.ScoringTimeLimitSec, o.ScoringTimeLimitSec, MaxTimeLimitSec); err != nil {
		return cfg, err
	}
	if o.NumberOfSets != nil {
		if *o.NumberOfSets < 1 || *o.NumberOfSets > MaxSets {
			return cfg, ErrInvalidConfig
		}
		cfg.NumberOfSets = *o.NumberOfSets
	}
	if o.RedrawLimits != nil {
		for _, slot := range Slots {
			if v := o.RedrawLimits.Get(slot); v < 0 || v > MaxRedraws {
				return cfg, ErrInvalidConfig
			}
		}
		cfg.RedrawLimits = *o.RedrawLimits
	}

	return cfg, nil
}

// startSet hands out a fresh deal and puts the first player up.
func startSet(room *Room, hands map[string]Senryu) {
	room.State = StateDistributing
	for _, p := range room.Players {
		s := hands[p.ID]
		p.Senryu = &s
		room.RedrawsUsed[p.ID] = SlotCounts{}
	}
	room.SubmittedScores = make(map[int]map[string]ScoreSubmission)
	room.CurrentPresenterIndex = 0
	room.PresentationStarted = false
	room.State = StatePresenting
}

func (g *Game) startGame(room *Room, playerID string, c *StartGame, out *Outcome) error {
	if err := requireHost(room, playerID); err != nil {
		return err
	}
	if room.State != StateWaiting {
		return ErrInvalidState
	}
	if len(room.Players) < MinPlayers {
		return ErrNotEnoughPlayers
	}

	cfg, err := applyOverrides(room.Config, c.Config)
	if err != nil {
		return err
	}

	hands, err := g.dealer.Deal(room.Players, g.pools.Pools())
	if err != nil {
		return err
	}

	now := g.clock.Now()
	room.Config = cfg
	room.TotalSets = cfg.NumberOfSets
	room.CurrentSet = 1
	room.StartedAt = &now
	startSet(room, hands)

	out.Broadcast = append(out.Broadcast, Event{
		Type:    EvtGameStarted,
		Payload: RoomStatePayload{Room: room},
	})

	return nil
}

func (g *Game) redraw(room *Room, playerID string, c *RedrawCard, out *Outcome) error {
	if room.State != StatePresenting {
		return ErrInvalidState
	}
	if !c.Slot.Valid() {
		return ErrInvalidSlot
	}

	player := room.Player(playerID)
	if player == nil {
		return ErrPlayerNotFound
	}
	if presenter := room.Presenter(); presenter == nil || presenter.ID != playerID {
		return ErrNotYourTurn
	}
	if room.PresentationStarted {
		return ErrAlreadyStarted
	}
	if player.Senryu == nil {
		return ErrInvalidState
	}

	used := room.RedrawsUsed[playerID]
	limit := room.Config.RedrawLimits.Get(c.Slot)
	if used.Get(c.Slot) >= limit {
		return ErrRedrawLimitExceeded
	}

	card, err := g.dealer.Redraw(player.Senryu.Card(c.Slot), c.Slot, g.pools.Pools())
	if err != nil {
		return err
	}

	player.Senryu.setCard(c.Slot, card)
	used.increment(c.Slot)
	room.RedrawsUsed[playerID] = used

	out.Broadcast = append(out.Broadcast, Event{
		Type: EvtCardRedrawn,
		Payload: CardRedrawnPayload{
			PlayerID:  playerID,
			Slot:      c.Slot,
			Card:      card,
			Remaining: limit - used.Get(c.Slot),
		},
	})

	return nil
}

func (g *Game) startPresentation(room *Room, playerID string, out *Outcome) error {
	if err := requireHost(room, playerID); err != nil {
		return err
	}
	if room.State != StatePresenting {
		return ErrInvalidState
	}
	if room.PresentationStarted {
		return ErrAlreadyStarted
	}

	room.PresentationStarted = true
	out.Broadcast = append(out.Broadcast, presentationEvent(EvtPresentationStarted, room))

	return nil
}

func (g *Game) endPresentation(room *Room, playerID string, out *Outcome) error {
	if err := requireHost(room, playerID); err != nil {
		return err
	}
	if room.State != StatePresenting {
		return ErrInvalidState
	}
	if !room.PresentationStarted {
		return ErrPresentationNotStarted
	}

	room.State = StateScoring
	out.Broadcast = append(out.Broadcast, presentationEvent(EvtPresentationEnded, room))

	return nil
}

func validateScores(scores map[string]int) error {
	if len(scores) == 0 {
		return ErrInvalidScore
	}
	for criterion, v := range scores {
		if criterion == "" || v < MinCriterionScore || v > MaxCriterionScore {
			return ErrInvalidScore
		}
	}
	return nil
}

func (g *Game) submitScore(room *Room, playerID string, c *SubmitScore, out *Outcome) error {
	if room.Player(playerID) == nil {
		return ErrPlayerNotFound
	}

	switch room.State {
	case StatePresenting:
		if !room.PresentationStarted {
			return ErrPresentationNotStarted
		}
	case StateScoring:
	default:
		return ErrInvalidState
	}

	presenter := room.Presenter()
	if presenter.ID == playerID {
		return ErrSelfScore
	}
	if c.TargetPlayerID != "" && c.TargetPlayerID != presenter.ID {
		return ErrInvalidTarget
	}
	if err := validateScores(c.Scores); err != nil {
		return err
	}

	scores := make(map[string]int, len(c.Scores))
	for k, v := range c.Scores {
		scores[k] = v
	}

	idx := room.CurrentPresenterIndex
	room.State = StateScoring
	recordSubmission(room, idx, ScoreSubmission{
		ScorerPlayerID: playerID,
		TargetPlayerID: presenter.ID,
		Scores:         scores,
		Timestamp:      g.clock.Now(),
	})

	out.Broadcast = append(out.Broadcast, Event{
		Type: EvtScoreSubmitted,
		Payload: ScoreSubmittedPayload{
			ScorerID:       playerID,
			PresenterID:    presenter.ID,
			PresenterIndex: idx,
			Submitted:      len(room.SubmittedScores[idx]),
			Expected:       len(room.Players) - 1,
		},
	})

	if !RoundComplete(room, idx) {
		return nil
	}

	completeRound(room, out)
	return g.advance(room, out)
}

func (g *Game) nextPresenter(room *Room, playerID string, out *Outcome) error {
	if err := requireHost(room, playerID); err != nil {
		return err
	}
	if room.State != StatePresenting && room.State != StateScoring {
		return ErrInvalidState
	}

	if len(room.SubmittedScores[room.CurrentPresenterIndex]) > 0 {
		completeRound(room, out)
	}

	return g.advance(room, out)
}

// completeRound adds the current presenter's aggregate to their total.
func completeRound(room *Room, out *Outcome) {
	idx := room.CurrentPresenterIndex
	presenter := room.Presenter()

	score := AggregatePresenterScore(room.SubmittedScores[idx])
	presenter.TotalScore += score

	out.Broadcast = append(out.Broadcast, Event{
		Type: EvtRoundCompleted,
		Payload: RoundCompletedPayload{
			PresenterID:    presenter.ID,
			PresenterIndex: idx,
			Score:          score,
			TotalScore:     presenter.TotalScore,
		},
	})
}

// advance moves to the next presenter, the next set, or the end of the game.
func (g *Game) advance(room *Room, out *Outcome) error {
	room.PresentationStarted = false

	if room.CurrentPresenterIndex+1 < len(room.Players) {
		room.CurrentPresenterIndex++
		room.State = StatePresenting
		out.Broadcast = append(out.Broadcast, presentationEvent(EvtNextPresenter, room))
		return nil
	}

	if room.CurrentSet < room.TotalSets {
		hands, err := g.dealer.Deal(room.Players, g.pools.Pools())
		if err != nil {
			return err
		}
		room.CurrentSet++
		startSet(room, hands)
		out.Broadcast = append(out.Broadcast, Event{
			Type:    EvtSetStarted,
			Payload: RoomStatePayload{Room: room},
		})
		return nil
	}

	now := g.clock.Now()
	room.CurrentPresenterIndex = len(room.Players)
	room.State = StateCompleted
	room.EndedAt = &now
	room.Results = ComputeFinalResults(room.Players)

	out.Broadcast = append(out.Broadcast, Event{
		Type:    EvtGameCompleted,
		Payload: GameCompletedPayload{Results: room.Results},
	})

	return nil
}

func (g *Game) publishRanking(room *Room, playerID string, out *Outcome) error {
	if room.State != StateCompleted {
		return ErrInvalidState
	}

	player := room.Player(playerID)
	if player == nil {
		return ErrPlayerNotFound
	}
	if !player.RankingPreference.AllowRanking {
		return ErrRankingNotAllowed
	}
	if player.RankingPublished {
		return ErrAlreadyPublished
	}
	if player.Senryu == nil {
		return ErrInvalidState
	}

	entry := &RankingEntry{
		ID:               g.ids.NewID(),
		RoomID:           room.ID,
		PlayerName:       player.Name,
		Senryu:           *player.Senryu,
		Score:            player.TotalScore,
		AnonymousRanking: player.RankingPreference.AnonymousRanking,
		PublishedAt:      g.clock.Now(),
	}
	player.RankingPublished = true

	out.Ranking = entry
	out.Reply = append(out.Reply, Event{Type: EvtRankingPublished, Payload: entry})

	return nil
}
