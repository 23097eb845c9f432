// Package web serves the run dashboard: the latest engine snapshot and a
// rolling decision log over REST and websocket.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-dungeon/pkg/engine"
	"github.com/teslashibe/go-dungeon/pkg/hub"
)

// maxLogs is the size of the decision log ring.
const maxLogs = 500

// Status is what /api/status reports.
type Status struct {
	Snapshot  *engine.Snapshot `json:"snapshot"`
	Character string           `json:"character,omitempty"`
	Completed []string         `json:"completed,omitempty"`
	Cycles    uint64           `json:"cycles"`
	Clients   int              `json:"clients"`
	Uptime    string           `json:"uptime"`
}

// LogEntry is one engine decision.
type LogEntry struct {
	Time    string        `json:"time"`
	Seq     uint64        `json:"seq"`
	Action  engine.Action `json:"action"`
	Room    int           `json:"room"`
	Message string        `json:"message"`
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger
	start  time.Time

	// Latest snapshot
	snapshot *engine.Snapshot
	cycles   uint64
	stateMu  sync.RWMutex

	// Decision log (last maxLogs entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	statusHub *hub.Hub
	logHub    *hub.Hub

	// OnRoster reports the current character and the completed ones.
	OnRoster func() (current string, completed []string)
}

// NewServer creates a new web dashboard server listening on addr.
func NewServer(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:      addr,
		logger:    logger.With("component", "web"),
		start:     time.Now(),
		logs:      make([]LogEntry, 0, maxLogs),
		statusHub: hub.New("status", logger),
		logHub:    hub.New("logs", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Dungeon Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleGetLogs)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))

	s.app = app
	return s
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go s.statusHub.Run(ctx)
	go s.logHub.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("web dashboard listening", "addr", s.addr)
		errc <- s.app.Listen(s.addr)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("web: %w", err)
	case <-ctx.Done():
		return s.app.Shutdown()
	}
}

// Observe implements engine.Observer. It records the snapshot, logs
// decisions other than none, and broadcasts both without blocking.
func (s *Server) Observe(snap engine.Snapshot) {
	s.stateMu.Lock()
	s.snapshot = &snap
	s.cycles++
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(snap)

	switch snap.Action {
	case engine.ActionNone, engine.ActionStagnation:
		return
	}
	entry := LogEntry{
		Time:    snap.Time.Format("15:04:05.000"),
		Seq:     snap.Seq,
		Action:  snap.Action,
		Room:    snap.State.Room,
		Message: describe(snap),
	}
	s.AddLog(entry)
}

// AddLog appends to the decision log and broadcasts the entry.
func (s *Server) AddLog(entry LogEntry) {
	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// Status returns the current dashboard status.
func (s *Server) Status() Status {
	s.stateMu.RLock()
	st := Status{
		Snapshot: s.snapshot,
		Cycles:   s.cycles,
	}
	s.stateMu.RUnlock()

	st.Clients = s.statusHub.ClientCount() + s.logHub.ClientCount()
	st.Uptime = time.Since(s.start).Truncate(time.Second).String()
	if s.OnRoster != nil {
		st.Character, st.Completed = s.OnRoster()
	}
	return st
}

// Logs returns a copy of the decision log, oldest first.
func (s *Server) Logs() []LogEntry {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	out := make([]LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

func describe(snap engine.Snapshot) string {
	switch snap.Action {
	case engine.ActionRoomEntered:
		return fmt.Sprintf("entered room %d, heading %s", snap.State.Room, snap.Direction)
	case engine.ActionDoor:
		return fmt.Sprintf("door %s from (%.2f, %.2f)", snap.Direction, snap.Position.X, snap.Position.Y)
	case engine.ActionRetry:
		return "new run " + snap.State.RunID
	case engine.ActionRecover:
		return fmt.Sprintf("recovering at stagnation %d", snap.State.Stagnation)
	default:
		return fmt.Sprintf("%s in room %d", snap.Action, snap.State.Room)
	}
}
