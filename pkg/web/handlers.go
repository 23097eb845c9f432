package web

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-dungeon/pkg/hub"
)

// handleStatus returns the current run status
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Status())
}

// handleGetLogs returns recent decisions. ?limit=n trims to the newest n.
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	logs := s.Logs()
	if n := c.QueryInt("limit", 0); n > 0 && n < len(logs) {
		logs = logs[len(logs)-n:]
	}
	return c.JSON(logs)
}

// handleStatusWS streams a snapshot per engine cycle, starting with the
// current status.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	var greeting []hub.Message
	if data, err := json.Marshal(s.Status()); err == nil {
		greeting = append(greeting, hub.NewJSONMessage(data))
	}
	hub.NewClient(s.statusHub, c, greeting...).Run()
}

// handleLogsWS replays the decision log, then streams new entries.
func (s *Server) handleLogsWS(c *websocket.Conn) {
	var greeting []hub.Message
	for _, entry := range s.Logs() {
		if data, err := json.Marshal(entry); err == nil {
			greeting = append(greeting, hub.NewJSONMessage(data))
		}
	}
	hub.NewClient(s.logHub, c, greeting...).Run()
}
