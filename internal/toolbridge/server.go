// Package toolbridge exposes the session engine to tool-calling models over
// MCP. Tool invocations are just another command source: each handler maps
// its arguments onto an ordinary session command and submits it through the
// hub, so tools and browsers race on exactly the same serialized actor.
//
// Natural-language duration parsing stays outside the engine: tools accept
// minutes and seconds as numbers and the bridge combines them into one
// millisecond value before anything reaches the timer.
package toolbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/cooksync/internal/document"
	"github.com/cooksync/internal/session"
	"github.com/cooksync/internal/timer"
	"github.com/cooksync/pkg/logger"
)

const serverVersion = "1.0.0"

// Server is the MCP tool server bridging models to session actors.
type Server struct {
	hub *session.Hub
	log *logger.Logger
	mcp *mcpserver.MCPServer
}

// New creates the tool server and registers all tools.
func New(hub *session.Hub, log *logger.Logger) *Server {
	s := &Server{
		hub: hub,
		log: log,
		mcp: mcpserver.NewMCPServer("cooksync", serverVersion),
	}
	s.registerTools()
	return s
}

// HTTPHandler returns the streamable HTTP transport for mounting on the main
// router.
func (s *Server) HTTPHandler() http.Handler {
	return mcpserver.NewStreamableHTTPServer(s.mcp)
}

// ServeStdio runs the tool server over stdio until the context ends.
func (s *Server) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcp)
}

// MCPServer exposes the underlying server, mainly for tests.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

func (s *Server) registerTools() {
	sessionArg := []mcp.ToolOption{
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Shared session identifier (case-insensitive)"),
		),
	}

	timerTool := func(name, description string) mcp.Tool {
		opts := append([]mcp.ToolOption{mcp.WithDescription(description)}, sessionArg...)
		return mcp.NewTool(name, opts...)
	}

	s.mcp.AddTool(mcp.NewTool("set_timer",
		mcp.WithDescription("Set the shared cooking timer to a duration, replacing any timer in progress. The timer starts paused."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Shared session identifier (case-insensitive)")),
		mcp.WithNumber("minutes", mcp.Description("Whole minutes component of the duration")),
		mcp.WithNumber("seconds", mcp.Description("Seconds component of the duration")),
		mcp.WithString("label", mcp.Description("Display label for the timer, e.g. \"Rice\"")),
	), s.handleSetTimer)

	s.mcp.AddTool(mcp.NewTool("add_time",
		mcp.WithDescription("Add or remove time on the shared timer. Negative values remove time; removing more than remains cancels the timer."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Shared session identifier (case-insensitive)")),
		mcp.WithNumber("minutes", mcp.Description("Whole minutes to add (may be negative)")),
		mcp.WithNumber("seconds", mcp.Description("Seconds to add (may be negative)")),
	), s.handleAddTime)

	s.mcp.AddTool(timerTool("start_timer", "Start or resume the shared timer countdown."), s.timerHandler(session.OpStart, "Timer started"))
	s.mcp.AddTool(timerTool("pause_timer", "Pause the shared timer, keeping the remaining time."), s.timerHandler(session.OpPause, "Timer paused"))
	s.mcp.AddTool(timerTool("reset_timer", "Reset the shared timer back to its full duration, paused."), s.timerHandler(session.OpReset, "Timer reset"))
	s.mcp.AddTool(timerTool("clear_timer", "Remove the shared timer entirely."), s.timerHandler(session.OpClear, "Timer cleared"))

	s.mcp.AddTool(mcp.NewTool("add_items",
		mcp.WithDescription("Add items to the tracked or shopping list."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Shared session identifier (case-insensitive)")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Which list: \"tracked\" or \"shopping\"")),
		mcp.WithArray("items",
			mcp.Required(),
			mcp.Description("Items to add; each has name, optional quantity and expiry_date"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":        map[string]any{"type": "string"},
					"quantity":    map[string]any{"type": "string"},
					"expiry_date": map[string]any{"type": "string"},
				},
				"required": []string{"name"},
			}),
		),
	), s.handleAddItems)

	s.mcp.AddTool(mcp.NewTool("remove_item",
		mcp.WithDescription("Remove one item from the tracked or shopping list, by id or by name (case-insensitive, first match)."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Shared session identifier (case-insensitive)")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Which list: \"tracked\" or \"shopping\"")),
		mcp.WithString("item_id", mcp.Description("ID of the item to remove")),
		mcp.WithString("name", mcp.Description("Name of the item to remove, used when item_id is not given")),
	), s.handleRemoveItem)

	s.mcp.AddTool(mcp.NewTool("update_item",
		mcp.WithDescription("Update an existing list item's name, quantity, or expiry date."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Shared session identifier (case-insensitive)")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Which list: \"tracked\" or \"shopping\"")),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("ID of the item to update")),
		mcp.WithString("name", mcp.Required(), mcp.Description("New item name")),
		mcp.WithString("quantity", mcp.Description("New quantity, free text")),
		mcp.WithString("expiry_date", mcp.Description("New expiry date, free text")),
	), s.handleUpdateItem)

	s.mcp.AddTool(mcp.NewTool("add_instruction",
		mcp.WithDescription("Append a free-text preparation step."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Shared session identifier (case-insensitive)")),
		mcp.WithString("text", mcp.Required(), mcp.Description("The instruction text")),
	), s.handleAddInstruction)

	s.mcp.AddTool(mcp.NewTool("remove_instruction",
		mcp.WithDescription("Remove the preparation step at a zero-based index."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Shared session identifier (case-insensitive)")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based index of the step to remove")),
	), s.handleRemoveInstruction)

	s.mcp.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Read the current canonical session state: timer, tracked items, shopping items, and instructions."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Shared session identifier (case-insensitive)")),
	), s.handleGetSession)
}

// submit routes a tool-originated command through the same actor path as
// any browser client.
func (s *Server) submit(ctx context.Context, sessionID string, cmd session.Command) (document.Document, error) {
	submitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.hub.Get(sessionID).Submit(submitCtx, cmd)
}

func (s *Server) timerHandler(op session.Op, confirmation string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := req.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		doc, err := s.submit(ctx, sessionID, session.Command{Op: op})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s. %s", confirmation, describeTimer(doc))), nil
	}
}

func (s *Server) handleSetTimer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	durationMs := combinedMs(req.GetFloat("minutes", 0), req.GetFloat("seconds", 0))
	label := req.GetString("label", "Custom")

	doc, err := s.submit(ctx, sessionID, session.Command{
		Op:         session.OpSetDuration,
		DurationMs: durationMs,
		Label:      label,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Timer set. %s", describeTimer(doc))), nil
}

func (s *Server) handleAddTime(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	deltaMs := combinedMs(req.GetFloat("minutes", 0), req.GetFloat("seconds", 0))

	doc, err := s.submit(ctx, sessionID, session.Command{
		Op:      session.OpAddTime,
		DeltaMs: deltaMs,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Time adjusted. %s", describeTimer(doc))), nil
}

func (s *Server) handleAddItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	items, err := itemsFromArguments(req.GetArguments()["items"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultError("Please provide at least one item"), nil
	}

	_, err = s.submit(ctx, sessionID, session.Command{
		Op:     session.OpAddItems,
		Target: document.Target(target),
		Items:  items,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added %d item(s) to the %s list", len(items), target)), nil
}

func (s *Server) handleRemoveItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	itemID := req.GetString("item_id", "")
	name := req.GetString("name", "")

	var cmd session.Command
	switch {
	case itemID != "":
		cmd = session.Command{Op: session.OpRemoveItemByID, Target: document.Target(target), ItemID: itemID}
	case name != "":
		cmd = session.Command{Op: session.OpRemoveItemByName, Target: document.Target(target), Name: name}
	default:
		return mcp.NewToolResultError("Please provide item_id or name"), nil
	}

	if _, err := s.submit(ctx, sessionID, cmd); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed item from the %s list", target)), nil
}

func (s *Server) handleUpdateItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	itemID, err := req.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	_, err = s.submit(ctx, sessionID, session.Command{
		Op:     session.OpUpdateItem,
		Target: document.Target(target),
		Item: document.ListItem{
			ID:         itemID,
			Name:       name,
			Quantity:   req.GetString("quantity", ""),
			ExpiryDate: req.GetString("expiry_date", ""),
		},
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated %q in the %s list", name, target)), nil
}

func (s *Server) handleAddInstruction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.submit(ctx, sessionID, session.Command{Op: session.OpAddInstruction, Text: text})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added step %d", len(doc.Instructions))), nil
}

func (s *Server) handleRemoveInstruction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := s.submit(ctx, sessionID, session.Command{Op: session.OpRemoveInstructionByIndex, Index: index}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed step %d", index)), nil
}

func (s *Server) handleGetSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	subCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc, sub, err := s.hub.Get(sessionID).Subscribe(subCtx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sub.Cancel()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// combinedMs folds a minutes/seconds split into one millisecond value.
func combinedMs(minutes, seconds float64) int64 {
	return int64(minutes*60000) + int64(seconds*1000)
}

func itemsFromArguments(raw any) ([]document.ListItem, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("items must be an array")
	}
	items := make([]document.ListItem, 0, len(list))
	for _, entry := range list {
		fields, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("each item must be an object")
		}
		name, _ := fields["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("each item needs a name")
		}
		quantity, _ := fields["quantity"].(string)
		expiry, _ := fields["expiry_date"].(string)
		items = append(items, document.ListItem{Name: name, Quantity: quantity, ExpiryDate: expiry})
	}
	return items, nil
}

func describeTimer(doc document.Document) string {
	t := doc.Timer
	switch t.Status {
	case timer.StatusIdle:
		return "No timer is configured."
	case timer.StatusFinished:
		return fmt.Sprintf("%q has finished.", labelOr(t.Label))
	default:
		remaining := time.Duration(timer.RemainingAt(t, time.Now())) * time.Millisecond
		return fmt.Sprintf("%q is %s with %s remaining.", labelOr(t.Label), t.Status, remaining.Round(time.Second))
	}
}

func labelOr(label string) string {
	if label == "" {
		return "Timer"
	}
	return label
}
