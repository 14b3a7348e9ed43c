/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package senryu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealGivesEveryPlayerOneCardPerSlot(t *testing.T) {
	pools := DefaultPools()
	dealer := NewDealer(&DealerConfig{Seed: 7})

	players := []*Player{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	hands, err := dealer.Deal(players, pools)
	require.NoError(t, err)
	require.Len(t, hands, len(players))

	for _, p := range players {
		hand, ok := hands[p.ID]
		require.True(t, ok, "no hand for %s", p.ID)
		for _, slot := range Slots {
			card := hand.Card(slot)
			assert.Equal(t, slot, card.Slot)
			assert.Contains(t, pools.For(slot), card)
		}
	}
}

func TestDealIsDeterministicForSeed(t *testing.T) {
	pools := DefaultPools()
	players := []*Player{{ID: "a"}, {ID: "b"}}

	first, err := NewDealer(&DealerConfig{Seed: 99}).Deal(players, pools)
	require.NoError(t, err)
	second, err := NewDealer(&DealerConfig{Seed: 99}).Deal(players, pools)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDealRejectsEmptyPool(t *testing.T) {
	pools := DefaultPools()
	pools.Middle = nil

	_, err := NewDealer(nil).Deal([]*Player{{ID: "a"}}, pools)
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestRedrawAlwaysChangesCard(t *testing.T) {
	pools := DefaultPools()
	dealer := NewDealer(&DealerConfig{Seed: 3})

	for _, slot := range Slots {
		current := pools.For(slot)[0]
		for i := 0; i < 100; i++ {
			card, err := dealer.Redraw(current, slot, pools)
			require.NoError(t, err)
			assert.NotEqual(t, current.ID, card.ID)
			assert.Equal(t, slot, card.Slot)
			current = card
		}
	}
}

func TestRedrawSingleCardPool(t *testing.T) {
	only := Card{ID: "u01", Text: "only", Slot: SlotUpper}
	pools := &Pools{Upper: []Card{only}}

	card, err := NewDealer(nil).Redraw(only, SlotUpper, pools)
	require.NoError(t, err)
	assert.Equal(t, only, card)

	_, err = NewDealer(nil).Redraw(only, SlotLower, pools)
	assert.ErrorIs(t, err, ErrEmptyPool)
}
