package deck_test

import (
	"testing"

	"github.com/ethx42/tabula-room-service/internal/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDeck() deck.Deck {
	return deck.Deck{
		ID:    "d1",
		Theme: "animals",
		Items: []deck.Item{
			{ID: "a1", Name: "Alpaca"},
			{ID: "a2", Name: "Badger"},
			{ID: "a3", Name: "Cat"},
		},
	}
}

func TestByID(t *testing.T) {
	d := sampleDeck()

	item, ok := d.ByID("a2")
	require.True(t, ok)
	assert.Equal(t, "Badger", item.Name)

	_, ok = d.ByID("missing")
	assert.False(t, ok)
}

func TestIDs(t *testing.T) {
	d := sampleDeck()
	assert.Equal(t, []string{"a1", "a2", "a3"}, d.IDs())
}

func TestValidateForRoom(t *testing.T) {
	d := sampleDeck()

	assert.NoError(t, d.ValidateForRoom(3))
	assert.Error(t, d.ValidateForRoom(4))
}

func TestValidateForRoomRejectsDuplicateIDs(t *testing.T) {
	d := sampleDeck()
	d.Items = append(d.Items, deck.Item{ID: "a1", Name: "Alpaca Again"})

	err := d.ValidateForRoom(1)
	assert.ErrorContains(t, err, "duplicate")
}

func TestValidateForRoomRejectsEmptyID(t *testing.T) {
	d := deck.Deck{ID: "d2", Items: []deck.Item{{ID: "", Name: "Nameless"}}}

	err := d.ValidateForRoom(1)
	assert.ErrorContains(t, err, "empty id")
}
