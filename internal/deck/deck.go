// Package deck holds the immutable value types for the calling card deck.
package deck

import "fmt"

// Item is a single callable entry in a Deck. Identity is ID, unique within
// the owning Deck.
type Item struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ShortText    string `json:"shortText"`
	LongText     string `json:"longText,omitempty"`
	DetailedText string `json:"detailedText,omitempty"`
	Category     string `json:"category,omitempty"`
	ThemeColor   string `json:"themeColor,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
}

// Deck is an ordered, immutable collection of Items sharing an optional theme.
type Deck struct {
	ID    string `json:"id"`
	Theme string `json:"theme,omitempty"`
	Items []Item `json:"items"`
}

// ByID returns the Item with the given id and whether it was found.
func (d Deck) ByID(id string) (Item, bool) {
	for _, it := range d.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// IDs returns the deck's item IDs in declared order.
func (d Deck) IDs() []string {
	ids := make([]string, len(d.Items))
	for i, it := range d.Items {
		ids[i] = it.ID
	}
	return ids
}

// ValidateForRoom checks the invariant a Room requires before binding a Deck:
// it must hold at least `minSize` distinct items.
func (d Deck) ValidateForRoom(minSize int) error {
	if len(d.Items) < minSize {
		return fmt.Errorf("deck %q has %d items, need at least %d", d.ID, len(d.Items), minSize)
	}
	seen := make(map[string]struct{}, len(d.Items))
	for _, it := range d.Items {
		if it.ID == "" {
			return fmt.Errorf("deck %q has an item with an empty id", d.ID)
		}
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("deck %q has duplicate item id %q", d.ID, it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}
