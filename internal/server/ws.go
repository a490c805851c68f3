package server

import (
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/nettable/internal/table"
)

// StreamEvent is one JSON frame pushed to a websocket client.
type StreamEvent struct {
	Event      string         `json:"event"`
	Topic      string         `json:"topic"`
	Type       string         `json:"type,omitempty"`
	Value      any            `json:"value,omitempty"`
	Timestamp  int64          `json:"timestamp,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

func eventName(k table.EventKind) string {
	switch k {
	case table.EventTopicCreated:
		return "topic_created"
	case table.EventTopicRemoved:
		return "topic_removed"
	case table.EventPropertiesChanged:
		return "properties_changed"
	case table.EventValueLocal, table.EventValueRemote:
		return "value"
	default:
		return "unknown"
	}
}

// handleStream streams topic events over a websocket. An optional repeated
// "prefix" query parameter narrows the stream to matching topics. Events are
// flushed on the configured periodic cadence.
func (s *Server) handleStream(c echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true, // In production, check origin.
	})
	if err != nil {
		slog.Error("failed to upgrade event stream", "error", err)
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	poller, err := s.inst.NewPoller()
	if err != nil {
		return err
	}
	defer poller.Close()

	scope := table.ScopeInstance()
	if prefixes := c.QueryParams()["prefix"]; len(prefixes) > 0 {
		scope = table.ScopePrefixes(prefixes...)
	}
	if _, err := s.inst.AddListener(poller, scope, table.EventAll); err != nil {
		return err
	}

	ctx := c.Request().Context()

	// Reads are only needed to observe the peer closing.
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.Periodic)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, ev := range poller.Read() {
				if err := wsjson.Write(ctx, conn, streamEvent(ev)); err != nil {
					return nil
				}
			}
		}
	}
}

func streamEvent(ev table.Event) StreamEvent {
	out := StreamEvent{
		Event:      eventName(ev.Kind),
		Topic:      ev.Topic,
		Properties: ev.Properties,
	}
	if ev.Value.IsValid() {
		out.Type = ev.Value.Kind().String()
		out.Value = ev.Value.Payload()
		out.Timestamp = ev.Value.Time()
	}
	return out
}
