package session

import (
	"github.com/cooksync/internal/document"
)

// Op names one of the operations a client or tool may submit against a
// session's document.
type Op string

const (
	OpSelectPreset             Op = "select_preset"
	OpStart                    Op = "start"
	OpPause                    Op = "pause"
	OpReset                    Op = "reset"
	OpSetDuration              Op = "set_duration"
	OpAddTime                  Op = "add_time"
	OpClear                    Op = "clear"
	OpTickFinish               Op = "tick_finish"
	OpAddItems                 Op = "add_items"
	OpRemoveItemByID           Op = "remove_item_by_id"
	OpRemoveItemByName         Op = "remove_item_by_name"
	OpUpdateItem               Op = "update_item"
	OpAddInstruction           Op = "add_instruction"
	OpRemoveInstructionByIndex Op = "remove_instruction_by_index"
)

// Command is the message submitted into an actor's command loop. Only the
// fields relevant to Op are read; the rest are ignored. The optional reply
// channel idiom lives in the actor itself so that callers stay
// fire-and-forget friendly.
type Command struct {
	Op Op

	// timer commands
	DurationMs int64
	DeltaMs    int64
	Label      string

	// list commands
	Target document.Target
	Items  []document.ListItem
	Item   document.ListItem
	ItemID string
	Name   string

	// instruction commands
	Text  string
	Index int
}

// Result carries the outcome of one applied command: either the new
// canonical document or a rejection. Rejections leave the canonical
// document untouched and are delivered to the originator only.
type Result struct {
	Doc document.Document
	Err error
}
