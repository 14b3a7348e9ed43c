/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package senryu

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

type sequentialIDs struct {
	n int
}

func (s *sequentialIDs) NewID() string {
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

type GameTestSuite struct {
	suite.Suite
	game  *Game
	clock *fixedClock
	pools *Pools
}

func (s *GameTestSuite) SetupTest() {
	s.clock = &fixedClock{now: time.Date(2025, 11, 18, 10, 0, 0, 0, time.UTC)}
	s.pools = DefaultPools()

	game, err := New(&Config{
		Pools:  s.pools,
		Dealer: NewDealer(&DealerConfig{Seed: 42}),
		Clock:  s.clock,
		IDs:    &sequentialIDs{},
	})
	s.Require().NoError(err)
	s.game = game
}

func TestGameTestSuite(t *testing.T) {
	suite.Run(t, new(GameTestSuite))
}

// apply runs cmd and requires it to succeed.
func (s *GameTestSuite) apply(room *Room, playerID string, cmd Command) *Outcome {
	out, err := s.game.Apply(room, playerID, cmd)
	s.Require().NoError(err)
	s.Require().NotNil(out)
	return out
}

// reject runs cmd, requires it to fail with want, and checks room is untouched.
func (s *GameTestSuite) reject(room *Room, playerID string, cmd Command, want *Error) {
	before := room.Clone()
	out, err := s.game.Apply(room, playerID, cmd)
	s.Require().ErrorIs(err, want)
	s.Nil(out)
	s.Empty(cmp.Diff(before, room), "rejected command modified the room")
}

// newRoom creates a room and joins the given extra players. It returns the
// room and the player ids in join order, host first.
func (s *GameTestSuite) newRoom(names ...string) (*Room, []string) {
	out := s.apply(nil, "", &CreateRoom{RoomID: "room-1", Code: "ABC123", HostName: "Host"})
	room := out.Room
	ids := []string{out.PlayerID}

	for _, name := range names {
		out = s.apply(room, "", &JoinRoom{PlayerName: name})
		room = out.Room
		ids = append(ids, out.PlayerID)
	}

	return room, ids
}

func (s *GameTestSuite) startedRoom(cfg *ConfigOverrides, names ...string) (*Room, []string) {
	room, ids := s.newRoom(names...)
	out := s.apply(room, ids[0], &StartGame{Config: cfg})
	return out.Room, ids
}

func (s *GameTestSuite) requireSingleHost(room *Room) {
	hosts := 0
	for _, p := range room.Players {
		if p.IsHost {
			hosts++
			s.Equal(room.HostPlayerID, p.ID)
		}
	}
	s.Equal(1, hosts)
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

func (s *GameTestSuite) TestCreateRoom() {
	out := s.apply(nil, "", &CreateRoom{RoomID: "room-1", Code: "ABC123", HostName: "  Host  "})

	s.True(out.Changed)
	s.Equal("id-1", out.PlayerID)
	s.Equal(StateWaiting, out.Room.State)
	s.Equal("Host", out.Room.Players[0].Name)
	s.Equal(s.clock.now, out.Room.CreatedAt)
	s.Equal(DefaultRoomConfig(), out.Room.Config)
	s.Equal([]EventType{EvtRoomState}, eventTypes(out.Reply))
	s.requireSingleHost(out.Room)

	s.reject(out.Room, "", &CreateRoom{RoomID: "room-1", HostName: "Again"}, ErrRoomExists)
}

func (s *GameTestSuite) TestCreateRoomRequiresName() {
	_, err := s.game.Apply(nil, "", &CreateRoom{RoomID: "room-1", HostName: "<>"})
	s.ErrorIs(err, ErrInvalidName)
}

func (s *GameTestSuite) TestCommandsBeforeCreateAreNotFound() {
	_, err := s.game.Apply(nil, "", &JoinRoom{PlayerName: "Alice"})
	s.ErrorIs(err, ErrRoomNotFound)
}

func (s *GameTestSuite) TestJoin() {
	room, ids := s.newRoom("Alice")

	s.Len(room.Players, 2)
	s.Equal(ids[1], room.Players[1].ID)
	s.False(room.Players[1].IsHost)
	s.Equal(SlotCounts{}, room.RedrawsUsed[ids[1]])
	s.requireSingleHost(room)

	s.reject(room, "", &JoinRoom{PlayerName: "alice"}, ErrNameTaken)
	s.reject(room, "", &JoinRoom{PlayerName: "   "}, ErrInvalidName)
}

func (s *GameTestSuite) TestJoinBroadcastExcludesJoiner() {
	room, _ := s.newRoom()
	out := s.apply(room, "", &JoinRoom{PlayerName: "Alice"})

	s.Equal(out.PlayerID, out.Exclude)
	s.Equal([]EventType{EvtPlayerJoined}, eventTypes(out.Broadcast))
	s.Equal([]EventType{EvtRoomState}, eventTypes(out.Reply))
}

func (s *GameTestSuite) TestJoinFullRoom() {
	names := make([]string, 0, DefaultMaxPlayers-1)
	for i := 1; i < DefaultMaxPlayers; i++ {
		names = append(names, fmt.Sprintf("Player %d", i))
	}
	room, _ := s.newRoom(names...)
	s.Len(room.Players, DefaultMaxPlayers)

	s.reject(room, "", &JoinRoom{PlayerName: "One Too Many"}, ErrRoomFull)
}

func (s *GameTestSuite) TestJoinAfterStartIsRejected() {
	room, _ := s.startedRoom(nil, "Alice")
	s.reject(room, "", &JoinRoom{PlayerName: "Late"}, ErrInvalidState)
}

func (s *GameTestSuite) TestNameIsSanitized() {
	s.Equal("Alice Bob", SanitizeName(" Alice \t\n Bob "))
	s.Equal("script", SanitizeName("<script>"))
	s.Equal("abcdefghijklmnopqrst", SanitizeName("abcdefghijklmnopqrstuvwxyz"))
	s.Equal("川柳太郎", SanitizeName("川柳太郎"))
}

func (s *GameTestSuite) TestStartGameNeedsTwoPlayers() {
	room, ids := s.newRoom()
	s.reject(room, ids[0], &StartGame{}, ErrNotEnoughPlayers)

	room, ids = s.newRoom("Alice")
	out := s.apply(room, ids[0], &StartGame{})

	s.Equal(StatePresenting, out.Room.State)
	s.Equal(0, out.Room.CurrentPresenterIndex)
	s.Equal(1, out.Room.CurrentSet)
	s.Equal(1, out.Room.TotalSets)
	s.Require().NotNil(out.Room.StartedAt)
	s.Equal(s.clock.now, *out.Room.StartedAt)
	for _, p := range out.Room.Players {
		s.Require().NotNil(p.Senryu)
		s.Equal(SlotUpper, p.Senryu.Upper.Slot)
		s.Equal(SlotMiddle, p.Senryu.Middle.Slot)
		s.Equal(SlotLower, p.Senryu.Lower.Slot)
	}
	s.Equal([]EventType{EvtGameStarted}, eventTypes(out.Broadcast))
}

func (s *GameTestSuite) TestStartGameIsHostOnly() {
	room, ids := s.newRoom("Alice")
	s.reject(room, ids[1], &StartGame{}, ErrHostOnly)
	s.reject(room, "stranger", &StartGame{}, ErrPlayerNotFound)
}

func (s *GameTestSuite) TestStartGameConfigOverrides() {
	sets := 2
	limit := 30
	room, _ := s.startedRoom(&ConfigOverrides{
		NumberOfSets:             &sets,
		PresentationTimeLimitSec: &limit,
		RedrawLimits:             &SlotCounts{Upper: 2, Middle: 0, Lower: 3},
	}, "Alice")

	s.Equal(2, room.TotalSets)
	s.Equal(30, room.Config.PresentationTimeLimitSec)
	s.Equal(SlotCounts{Upper: 2, Middle: 0, Lower: 3}, room.Config.RedrawLimits)

	bad := 0
	fresh, ids := s.newRoom("Alice")
	s.reject(fresh, ids[0], &StartGame{Config: &ConfigOverrides{NumberOfSets: &bad}}, ErrInvalidConfig)
}

func (s *GameTestSuite) TestRedrawLimit() {
	room, ids := s.startedRoom(&ConfigOverrides{RedrawLimits: &SlotCounts{Upper: 1}}, "Alice")
	before := *room.Players[0].Senryu

	out := s.apply(room, ids[0], &RedrawCard{Slot: SlotUpper})
	room = out.Room

	after := room.Players[0].Senryu
	s.NotEqual(before.Upper.ID, after.Upper.ID)
	s.Equal(before.Middle, after.Middle)
	s.Equal(1, room.RedrawsUsed[ids[0]].Upper)

	s.Require().Len(out.Broadcast, 1)
	payload := out.Broadcast[0].Payload.(CardRedrawnPayload)
	s.Equal(after.Upper, payload.Card)
	s.Equal(0, payload.Remaining)

	s.reject(room, ids[0], &RedrawCard{Slot: SlotUpper}, ErrRedrawLimitExceeded)
	s.Equal(1, room.RedrawsUsed[ids[0]].Upper)
	s.Equal(after.Upper, room.Players[0].Senryu.Upper)

	s.reject(room, ids[0], &RedrawCard{Slot: SlotMiddle}, ErrRedrawLimitExceeded)
}

func (s *GameTestSuite) TestRedrawGuards() {
	room, ids := s.startedRoom(nil, "Alice")

	s.reject(room, ids[1], &RedrawCard{Slot: SlotUpper}, ErrNotYourTurn)
	s.reject(room, ids[0], &RedrawCard{Slot: "side"}, ErrInvalidSlot)

	room = s.apply(room, ids[0], &StartPresentation{}).Room
	s.reject(room, ids[0], &RedrawCard{Slot: SlotUpper}, ErrAlreadyStarted)
}

func (s *GameTestSuite) TestRedrawNeverExceedsLimit() {
	limits := SlotCounts{Upper: 2, Middle: 1, Lower: 0}
	room, ids := s.startedRoom(&ConfigOverrides{RedrawLimits: &limits}, "Alice")

	for i := 0; i < 10; i++ {
		for _, slot := range Slots {
			out, err := s.game.Apply(room, ids[0], &RedrawCard{Slot: slot})
			if err == nil {
				room = out.Room
			}
			s.LessOrEqual(room.RedrawsUsed[ids[0]].Get(slot), limits.Get(slot))
		}
	}
	s.Equal(limits, room.RedrawsUsed[ids[0]])
}

func (s *GameTestSuite) TestPresentationFlow() {
	room, ids := s.startedRoom(nil, "Alice")

	s.reject(room, ids[1], &StartPresentation{}, ErrHostOnly)
	s.reject(room, ids[0], &EndPresentation{}, ErrPresentationNotStarted)
	s.reject(room, ids[1], &SubmitScore{Scores: map[string]int{"humor": 3}}, ErrPresentationNotStarted)

	out := s.apply(room, ids[0], &StartPresentation{})
	room = out.Room
	s.True(room.PresentationStarted)
	s.Equal([]EventType{EvtPresentationStarted}, eventTypes(out.Broadcast))
	s.reject(room, ids[0], &StartPresentation{}, ErrAlreadyStarted)

	out = s.apply(room, ids[0], &EndPresentation{})
	s.Equal(StateScoring, out.Room.State)
}

func (s *GameTestSuite) TestSubmitScoreValidation() {
	room, ids := s.startedRoom(nil, "Alice", "Bob")
	room = s.apply(room, ids[0], &StartPresentation{}).Room

	s.reject(room, ids[0], &SubmitScore{Scores: map[string]int{"humor": 3}}, ErrSelfScore)
	s.reject(room, ids[1], &SubmitScore{TargetPlayerID: ids[2], Scores: map[string]int{"humor": 3}}, ErrInvalidTarget)
	s.reject(room, ids[1], &SubmitScore{Scores: map[string]int{}}, ErrInvalidScore)
	s.reject(room, ids[1], &SubmitScore{Scores: map[string]int{"humor": 6}}, ErrInvalidScore)
	s.reject(room, ids[1], &SubmitScore{Scores: map[string]int{"humor": 0}}, ErrInvalidScore)
}

func (s *GameTestSuite) TestRoundCompletesWhenEveryoneScored() {
	room, ids := s.startedRoom(nil, "Alice", "Bob")
	room = s.apply(room, ids[0], &StartPresentation{}).Room

	out := s.apply(room, ids[1], &SubmitScore{TargetPlayerID: ids[0], Scores: map[string]int{"humor": 4, "rhythm": 2}})
	room = out.Room
	s.Equal(StateScoring, room.State)
	s.False(RoundComplete(room, 0))
	s.Equal([]EventType{EvtScoreSubmitted}, eventTypes(out.Broadcast))

	out = s.apply(room, ids[2], &SubmitScore{TargetPlayerID: ids[0], Scores: map[string]int{"humor": 5, "rhythm": 5}})
	room = out.Room

	s.True(RoundComplete(room, 0))
	s.Equal(1, room.CurrentPresenterIndex)
	s.Equal(StatePresenting, room.State)
	s.False(room.PresentationStarted)
	s.Equal(8, room.Players[0].TotalScore) // mean of 6 and 10
	s.Equal([]EventType{EvtScoreSubmitted, EvtRoundCompleted, EvtNextPresenter}, eventTypes(out.Broadcast))
}

func (s *GameTestSuite) TestResubmissionDoesNotDoubleCount() {
	room, ids := s.startedRoom(nil, "Alice", "Bob")
	room = s.apply(room, ids[0], &StartPresentation{}).Room

	room = s.apply(room, ids[1], &SubmitScore{Scores: map[string]int{"humor": 1}}).Room
	room = s.apply(room, ids[1], &SubmitScore{Scores: map[string]int{"humor": 5}}).Room

	s.Len(room.SubmittedScores[0], 1)
	s.Equal(5, room.SubmittedScores[0][ids[1]].Scores["humor"])
	s.False(RoundComplete(room, 0))
	s.Equal(0, room.CurrentPresenterIndex)
}

func (s *GameTestSuite) TestGameCompletesAfterLastPresenter() {
	room, ids := s.startedRoom(nil, "Alice", "Bob")

	// Each presenter gets a fixed score from both scorers.
	scores := []int{3, 5, 5}
	for presenter := range ids {
		s.Equal(presenter, room.CurrentPresenterIndex)
		room = s.apply(room, ids[0], &StartPresentation{}).Room
		for scorer := range ids {
			if scorer == presenter {
				continue
			}
			room = s.apply(room, ids[scorer], &SubmitScore{Scores: map[string]int{"humor": scores[presenter]}}).Room
		}
	}

	s.Equal(StateCompleted, room.State)
	s.Equal(len(room.Players), room.CurrentPresenterIndex)
	s.Require().NotNil(room.EndedAt)
	s.Require().NotNil(room.Results)

	// Alice and Bob tie on 5; Alice joined first.
	s.Equal(ids[1], room.Results.Winner.PlayerID)
	s.Equal(1, room.Results.Rankings[0].Rank)
	s.Equal(ids[2], room.Results.Rankings[1].PlayerID)
	s.Equal(1, room.Results.Rankings[1].Rank)
	s.Equal(ids[0], room.Results.Rankings[2].PlayerID)
	s.Equal(3, room.Results.Rankings[2].Rank)

	s.reject(room, ids[0], &NextPresenter{}, ErrInvalidState)
	s.requireSingleHost(room)
}

func (s *GameTestSuite) TestNextPresenterOverride() {
	room, ids := s.startedRoom(nil, "Alice", "Bob")
	s.reject(room, ids[1], &NextPresenter{}, ErrHostOnly)

	room = s.apply(room, ids[0], &StartPresentation{}).Room
	room = s.apply(room, ids[1], &SubmitScore{Scores: map[string]int{"humor": 4}}).Room

	out := s.apply(room, ids[0], &NextPresenter{})
	room = out.Room
	s.Equal(1, room.CurrentPresenterIndex)
	s.Equal(4, room.Players[0].TotalScore)
	s.Equal([]EventType{EvtRoundCompleted, EvtNextPresenter}, eventTypes(out.Broadcast))

	// Skipping without any scores awards nothing.
	room = s.apply(room, ids[0], &NextPresenter{}).Room
	s.Equal(2, room.CurrentPresenterIndex)
	s.Equal(0, room.Players[1].TotalScore)

	out = s.apply(room, ids[0], &NextPresenter{})
	s.Equal(StateCompleted, out.Room.State)
	s.Equal([]EventType{EvtGameCompleted}, eventTypes(out.Broadcast))
}

func (s *GameTestSuite) TestPresenterIndexNeverDecreasesWithinSet() {
	room, ids := s.startedRoom(nil, "Alice", "Bob", "Carol")

	last := room.CurrentPresenterIndex
	rounds := 0
	for room.State != StateCompleted {
		room = s.apply(room, ids[0], &NextPresenter{}).Room
		s.GreaterOrEqual(room.CurrentPresenterIndex, last)
		s.LessOrEqual(room.CurrentPresenterIndex, len(room.Players))
		last = room.CurrentPresenterIndex
		rounds++
	}
	s.Equal(len(ids), rounds)
}

func (s *GameTestSuite) TestPresentationOrderAcrossSets() {
	sets := 3
	room, ids := s.startedRoom(&ConfigOverrides{NumberOfSets: &sets}, "Alice", "Bob")

	lastSet, lastIndex := room.CurrentSet, room.CurrentPresenterIndex
	resets := 0
	for room.State != StateCompleted {
		room = s.apply(room, ids[0], &NextPresenter{}).Room
		if room.State == StateCompleted {
			break
		}

		if room.CurrentSet == lastSet {
			s.Greater(room.CurrentPresenterIndex, lastIndex)
		} else {
			s.Equal(lastSet+1, room.CurrentSet)
			s.Equal(0, room.CurrentPresenterIndex)
			resets++
		}
		lastSet, lastIndex = room.CurrentSet, room.CurrentPresenterIndex
	}

	s.Equal(sets-1, resets)
	s.Equal(sets, lastSet)
}

func (s *GameTestSuite) TestMultipleSets() {
	sets := 2
	room, ids := s.startedRoom(&ConfigOverrides{NumberOfSets: &sets}, "Alice")

	room = s.apply(room, ids[0], &RedrawCard{Slot: SlotUpper}).Room
	s.Equal(1, room.RedrawsUsed[ids[0]].Upper)

	room = s.apply(room, ids[0], &StartPresentation{}).Room
	room = s.apply(room, ids[1], &SubmitScore{Scores: map[string]int{"humor": 2}}).Room
	room = s.apply(room, ids[0], &StartPresentation{}).Room

	out := s.apply(room, ids[0], &SubmitScore{Scores: map[string]int{"humor": 3}})
	room = out.Room

	s.Equal(2, room.CurrentSet)
	s.Equal(StatePresenting, room.State)
	s.Equal(0, room.CurrentPresenterIndex)
	s.Equal(SlotCounts{}, room.RedrawsUsed[ids[0]])
	s.Empty(room.SubmittedScores)
	s.Equal([]EventType{EvtScoreSubmitted, EvtRoundCompleted, EvtSetStarted}, eventTypes(out.Broadcast))

	room = s.apply(room, ids[0], &NextPresenter{}).Room
	room = s.apply(room, ids[0], &NextPresenter{}).Room
	s.Equal(StateCompleted, room.State)
	s.Equal(2, room.Players[0].TotalScore)
	s.Equal(3, room.Players[1].TotalScore)
	s.Equal(ids[1], room.Results.Winner.PlayerID)
}

func (s *GameTestSuite) TestReconnect() {
	room, ids := s.newRoom("Alice")

	out := s.apply(room, "", &Reconnect{PlayerID: ids[1]})
	s.False(out.Changed)
	s.Same(room, out.Room)
	s.Equal(ids[1], out.PlayerID)
	s.Equal([]EventType{EvtPlayerOnline}, eventTypes(out.Broadcast))

	s.reject(room, "", &Reconnect{PlayerID: "nobody"}, ErrPlayerNotFound)
}

func (s *GameTestSuite) TestPing() {
	room, _ := s.newRoom()
	out := s.apply(room, "", &Ping{})

	s.False(out.Changed)
	s.Same(room, out.Room)
	s.Equal([]EventType{EvtPong}, eventTypes(out.Reply))
}

func (s *GameTestSuite) TestPublishRanking() {
	room, ids := s.newRoom()
	out := s.apply(room, "", &JoinRoom{PlayerName: "Alice", RankingPreference: RankingPreference{AllowRanking: true, AnonymousRanking: true}})
	room = out.Room
	ids = append(ids, out.PlayerID)

	s.reject(room, ids[1], &PublishRanking{}, ErrInvalidState)

	room = s.apply(room, ids[0], &StartGame{}).Room
	room = s.apply(room, ids[0], &NextPresenter{}).Room
	room = s.apply(room, ids[0], &NextPresenter{}).Room
	s.Require().Equal(StateCompleted, room.State)

	s.reject(room, ids[0], &PublishRanking{}, ErrRankingNotAllowed)

	out = s.apply(room, ids[1], &PublishRanking{})
	s.Require().NotNil(out.Ranking)
	s.Equal("Alice", out.Ranking.PlayerName)
	s.True(out.Ranking.AnonymousRanking)
	s.Equal(*out.Room.Players[1].Senryu, out.Ranking.Senryu)
	s.True(out.Room.Players[1].RankingPublished)

	s.reject(out.Room, ids[1], &PublishRanking{}, ErrAlreadyPublished)
}
