package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cooksync/internal/timer"
)

// Target names one of the two item collections a list command operates on.
type Target string

const (
	TargetTracked  Target = "tracked"
	TargetShopping Target = "shopping"
)

var (
	// ErrItemNotFound is returned when a removal or update names an item
	// that does not exist in the target collection.
	ErrItemNotFound = errors.New("Item not found")

	// ErrInvalidIndex is returned when an instruction removal index is out
	// of bounds.
	ErrInvalidIndex = errors.New("Instruction index out of range")

	// ErrUnknownTarget is returned when a list command names a collection
	// other than tracked or shopping.
	ErrUnknownTarget = errors.New("Unknown list target")
)

// ListItem is one entry in the tracked or shopping collection. ID is
// assigned on creation and never changes; identity is by ID, not position.
type ListItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Quantity   string `json:"quantity,omitempty"`
	ExpiryDate string `json:"expiry_date,omitempty"`
}

// Instruction is one free-text preparation step.
type Instruction struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Document is the complete canonical state for one session: the timer plus
// three flat ordered collections. Every mutation below replaces exactly one
// field and copies the rest through untouched, so a timer command can never
// disturb the lists and vice versa.
type Document struct {
	Timer         timer.State   `json:"timer"`
	TrackedItems  []ListItem    `json:"tracked_items"`
	ShoppingItems []ListItem    `json:"shopping_items"`
	Instructions  []Instruction `json:"instructions"`
}

// New returns the fresh document a session starts with: idle timer, empty
// collections.
func New() Document {
	return Document{
		Timer:         timer.Idle(),
		TrackedItems:  []ListItem{},
		ShoppingItems: []ListItem{},
		Instructions:  []Instruction{},
	}
}

// WithTimer returns a copy of the document with only the timer replaced.
func (d Document) WithTimer(t timer.State) Document {
	d.Timer = t
	return d
}

func (d Document) items(target Target) ([]ListItem, error) {
	switch target {
	case TargetTracked:
		return d.TrackedItems, nil
	case TargetShopping:
		return d.ShoppingItems, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, target)
	}
}

func (d Document) withItems(target Target, items []ListItem) Document {
	switch target {
	case TargetTracked:
		d.TrackedItems = items
	case TargetShopping:
		d.ShoppingItems = items
	}
	return d
}

// AddItems appends items to the target collection, assigning each a fresh ID
// when the caller did not supply one. Insertion order is preserved.
func AddItems(d Document, target Target, items []ListItem) (Document, error) {
	existing, err := d.items(target)
	if err != nil {
		return d, err
	}
	next := make([]ListItem, 0, len(existing)+len(items))
	next = append(next, existing...)
	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		next = append(next, item)
	}
	return d.withItems(target, next), nil
}

// RemoveItemByID removes the item with the given ID from the target
// collection.
func RemoveItemByID(d Document, target Target, id string) (Document, error) {
	existing, err := d.items(target)
	if err != nil {
		return d, err
	}
	for i, item := range existing {
		if item.ID == id {
			next := make([]ListItem, 0, len(existing)-1)
			next = append(next, existing[:i]...)
			next = append(next, existing[i+1:]...)
			return d.withItems(target, next), nil
		}
	}
	return d, ErrItemNotFound
}

// RemoveItemByName removes the first item (in insertion order) whose name
// matches, compared case-insensitively.
func RemoveItemByName(d Document, target Target, name string) (Document, error) {
	existing, err := d.items(target)
	if err != nil {
		return d, err
	}
	for i, item := range existing {
		if strings.EqualFold(item.Name, name) {
			next := make([]ListItem, 0, len(existing)-1)
			next = append(next, existing[:i]...)
			next = append(next, existing[i+1:]...)
			return d.withItems(target, next), nil
		}
	}
	return d, ErrItemNotFound
}

// UpdateItem replaces the name, quantity, and expiry of the item matching
// updated.ID, keeping its position and ID.
func UpdateItem(d Document, target Target, updated ListItem) (Document, error) {
	existing, err := d.items(target)
	if err != nil {
		return d, err
	}
	for i, item := range existing {
		if item.ID == updated.ID {
			next := make([]ListItem, len(existing))
			copy(next, existing)
			next[i] = ListItem{
				ID:         item.ID,
				Name:       updated.Name,
				Quantity:   updated.Quantity,
				ExpiryDate: updated.ExpiryDate,
			}
			return d.withItems(target, next), nil
		}
	}
	return d, ErrItemNotFound
}

// AddInstruction appends a free-text step with a fresh ID.
func AddInstruction(d Document, text string) (Document, error) {
	next := make([]Instruction, 0, len(d.Instructions)+1)
	next = append(next, d.Instructions...)
	next = append(next, Instruction{ID: uuid.New().String(), Text: text})
	d.Instructions = next
	return d, nil
}

// RemoveInstructionByIndex removes the step at the given zero-based index.
func RemoveInstructionByIndex(d Document, index int) (Document, error) {
	if index < 0 || index >= len(d.Instructions) {
		return d, ErrInvalidIndex
	}
	next := make([]Instruction, 0, len(d.Instructions)-1)
	next = append(next, d.Instructions[:index]...)
	next = append(next, d.Instructions[index+1:]...)
	d.Instructions = next
	return d, nil
}
