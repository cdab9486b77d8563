package toolbridge

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cooksync/internal/session"
	"github.com/cooksync/internal/store"
	"github.com/cooksync/internal/timer"
	"github.com/cooksync/pkg/logger"
)

func newTestServer() (*Server, *session.Hub) {
	hub := session.NewHub(store.NewMemoryStore(), logger.New())
	return New(hub, logger.New()), hub
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestRegisterTools(t *testing.T) {
	s, _ := newTestServer()

	tools := s.MCPServer().ListTools()
	for _, name := range []string{
		"set_timer", "add_time", "start_timer", "pause_timer", "reset_timer",
		"clear_timer", "add_items", "remove_item", "update_item",
		"add_instruction", "remove_instruction", "get_session",
	} {
		tool, ok := tools[name]
		if !ok {
			t.Errorf("tool %s not registered", name)
			continue
		}
		schema := tool.Tool.InputSchema
		if schema.Type != "object" {
			t.Errorf("%s: expected schema type object, got %q", name, schema.Type)
		}
		if _, ok := schema.Properties["session_id"]; !ok {
			t.Errorf("%s: missing session_id property", name)
		}
	}
}

func TestSetTimerCombinesMinutesAndSeconds(t *testing.T) {
	s, hub := newTestServer()
	ctx := context.Background()

	res, err := s.handleSetTimer(ctx, callRequest("set_timer", map[string]any{
		"session_id": "dinner",
		"minutes":    float64(4),
		"seconds":    float64(30),
		"label":      "Rice",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	doc, sub, err := hub.Get("dinner").Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	sub.Cancel()
	if doc.Timer.TotalMs != 270000 {
		t.Errorf("expected 270000ms, got %d", doc.Timer.TotalMs)
	}
	if doc.Timer.Status != timer.StatusPaused || doc.Timer.Label != "Rice" {
		t.Errorf("unexpected timer: %+v", doc.Timer)
	}
}

func TestSetTimerRejectionSurfacesAsResultString(t *testing.T) {
	s, _ := newTestServer()

	res, err := s.handleSetTimer(context.Background(), callRequest("set_timer", map[string]any{
		"session_id": "dinner",
		"minutes":    float64(0),
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for zero duration")
	}
	if got := resultText(t, res); !strings.Contains(got, "duration greater than 0") {
		t.Errorf("rejection text not surfaced: %q", got)
	}
}

func TestToolCommandsShareTheActorWithClients(t *testing.T) {
	s, hub := newTestServer()
	ctx := context.Background()

	// a browser client sets up state
	actor := hub.Get("dinner")
	if _, err := actor.Submit(ctx, session.Command{Op: session.OpSetDuration, DurationMs: 60000, Label: "Eggs"}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	_, subscription, err := actor.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer subscription.Cancel()

	// the tool starts the very same timer
	res, err := s.timerHandler(session.OpStart, "Timer started")(ctx, callRequest("start_timer", map[string]any{
		"session_id": "DINNER",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	broadcast := <-subscription.C
	if broadcast.Timer.Status != timer.StatusRunning {
		t.Errorf("client did not observe the tool's start: %+v", broadcast.Timer)
	}
}

func TestAddAndRemoveItems(t *testing.T) {
	s, _ := newTestServer()
	ctx := context.Background()

	res, err := s.handleAddItems(ctx, callRequest("add_items", map[string]any{
		"session_id": "dinner",
		"target":     "shopping",
		"items": []any{
			map[string]any{"name": "Eggs", "quantity": "12"},
			map[string]any{"name": "Milk", "expiry_date": "2024-03-20"},
		},
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	if got := resultText(t, res); !strings.Contains(got, "2 item(s)") {
		t.Errorf("unexpected confirmation: %q", got)
	}

	res, err = s.handleRemoveItem(ctx, callRequest("remove_item", map[string]any{
		"session_id": "dinner",
		"target":     "shopping",
		"name":       "eggs",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	// removing it again is a descriptive rejection, not a silent no-op
	res, err = s.handleRemoveItem(ctx, callRequest("remove_item", map[string]any{
		"session_id": "dinner",
		"target":     "shopping",
		"name":       "eggs",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for missing item")
	}
	if got := resultText(t, res); !strings.Contains(got, "Item not found") {
		t.Errorf("unexpected rejection text: %q", got)
	}
}

func TestRemoveItemRequiresIDOrName(t *testing.T) {
	s, _ := newTestServer()

	res, err := s.handleRemoveItem(context.Background(), callRequest("remove_item", map[string]any{
		"session_id": "dinner",
		"target":     "tracked",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error when neither item_id nor name is given")
	}
}

func TestGetSessionReturnsDocumentJSON(t *testing.T) {
	s, hub := newTestServer()
	ctx := context.Background()

	if _, err := hub.Get("dinner").Submit(ctx, session.Command{Op: session.OpAddInstruction, Text: "Soak the beans"}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	res, err := s.handleGetSession(ctx, callRequest("get_session", map[string]any{
		"session_id": "dinner",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	if got := resultText(t, res); !strings.Contains(got, "Soak the beans") {
		t.Errorf("document JSON missing instruction: %q", got)
	}
}
