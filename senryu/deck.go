/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package senryu

import (
	"math/rand"
	"time"
)

// Dealer hands out cards. It is not safe for concurrent use; each room
// actor owns its own.
type Dealer struct {
	random *rand.Rand
}

// DealerConfig configures a Dealer.
type DealerConfig struct {
	// Optional seed for testing
	Seed int64
}

// NewDealer creates a new dealer
func NewDealer(cfg *DealerConfig) *Dealer {
	var seed int64
	if cfg != nil && cfg.Seed != 0 {
		seed = cfg.Seed
	} else {
		seed = time.Now().UnixNano()
	}

	return &Dealer{
		random: rand.New(rand.NewSource(seed)),
	}
}

func (d *Dealer) pick(pool []Card) Card {
	return pool[d.random.Intn(len(pool))]
}

// Deal picks one card per slot for every player. Picks are independent, so
// two players may hold the same card.
func (d *Dealer) Deal(players []*Player, pools *Pools) (map[string]Senryu, error) {
	for _, slot := range Slots {
		if len(pools.For(slot)) == 0 {
			return nil, ErrEmptyPool
		}
	}

	hands := make(map[string]Senryu, len(players))
	for _, p := range players {
		var s Senryu
		for _, slot := range Slots {
			s.setCard(slot, d.pick(pools.For(slot)))
		}
		hands[p.ID] = s
	}

	return hands, nil
}

// Redraw returns a replacement for current. The result always differs from
// current unless the pool holds a single card.
func (d *Dealer) Redraw(current Card, slot Slot, pools *Pools) (Card, error) {
	pool := pools.For(slot)

	switch len(pool) {
	case 0:
		return Card{}, ErrEmptyPool
	case 1:
		return pool[0], nil
	}

	candidates := make([]Card, 0, len(pool))
	for _, c := range pool {
		if c.ID != current.ID {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return pool[0], nil
	}

	return d.pick(candidates), nil
}
