/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package senryu

import (
	"math"
	"sort"
)

// Score bounds for a single criterion.
const (
	MinCriterionScore = 1
	MaxCriterionScore = 5
)

// recordSubmission stores sub under (presenterIndex, scorer). A second
// submission from the same scorer replaces the first.
func recordSubmission(room *Room, presenterIndex int, sub ScoreSubmission) {
	if room.SubmittedScores == nil {
		room.SubmittedScores = make(map[int]map[string]ScoreSubmission)
	}
	subs, ok := room.SubmittedScores[presenterIndex]
	if !ok {
		subs = make(map[string]ScoreSubmission)
		room.SubmittedScores[presenterIndex] = subs
	}
	subs[sub.ScorerPlayerID] = sub
}

// RoundComplete reports whether every player other than the presenter has
// scored the presenter at presenterIndex.
func RoundComplete(room *Room, presenterIndex int) bool {
	return len(room.SubmittedScores[presenterIndex]) == len(room.Players)-1
}

// AggregatePresenterScore is the mean, over scorers, of each scorer's
// per-criterion total, rounded half away from zero.
func AggregatePresenterScore(subs map[string]ScoreSubmission) int {
	if len(subs) == 0 {
		return 0
	}

	total := 0
	for _, sub := range subs {
		for _, v := range sub.Scores {
			total += v
		}
	}

	return int(math.Round(float64(total) / float64(len(subs))))
}

// ComputeFinalResults ranks players by total score. Ties keep join order
// and share a rank.
func ComputeFinalResults(players []*Player) *Results {
	ordered := make([]*Player, len(players))
	copy(ordered, players)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TotalScore > ordered[j].TotalScore
	})

	res := &Results{
		Rankings: make([]Ranking, 0, len(ordered)),
	}
	for i, p := range ordered {
		rank := i + 1
		if i > 0 && p.TotalScore == ordered[i-1].TotalScore {
			rank = res.Rankings[i-1].Rank
		}
		res.Rankings = append(res.Rankings, Ranking{
			Rank:       rank,
			PlayerID:   p.ID,
			Name:       p.Name,
			TotalScore: p.TotalScore,
		})
	}
	if len(res.Rankings) > 0 {
		res.Winner = res.Rankings[0]
	}

	return res
}
