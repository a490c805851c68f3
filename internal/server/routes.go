package server

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/nettable/internal/table"
	"github.com/nfrund/nettable/internal/transport"
	"github.com/nfrund/nettable/internal/value"
)

func (s *Server) registerRoutes() {
	api := s.E.Group("/api")
	api.GET("/stats", s.handleStats)
	api.GET("/topics", s.handleListTopics)
	api.GET("/topics/*", s.handleGetTopic)
	api.POST("/publish", s.handlePublish)
	api.POST("/properties", s.handleSetProperties)

	s.E.GET("/ws", s.handleStream)
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Name string `json:"name"`
	table.Stats
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, StatsResponse{
		Name:  s.cfg.InstanceName,
		Stats: s.inst.GetStats(),
	})
}

func (s *Server) handleListTopics(c echo.Context) error {
	prefix := c.QueryParam("prefix")

	names := s.inst.TopicNames(prefix)
	infos := make([]table.TopicInfo, 0, len(names))
	for _, name := range names {
		if info, ok := s.inst.Info(name); ok {
			infos = append(infos, info)
		}
	}
	return c.JSON(http.StatusOK, infos)
}

func (s *Server) handleGetTopic(c echo.Context) error {
	name := "/" + c.Param("*")

	info, ok := s.inst.Info(name)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no such topic")
	}
	return c.JSON(http.StatusOK, info)
}

// PublishRequest is the DTO for POST /api/publish. Value uses the same
// per-type JSON encoding as the wire records.
type PublishRequest struct {
	Topic     string          `json:"topic" validate:"required"`
	Type      string          `json:"type" validate:"required"`
	Value     json.RawMessage `json:"value" validate:"required"`
	Timestamp int64           `json:"timestamp"`
}

func (s *Server) handlePublish(c echo.Context) error {
	var req PublishRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	v, err := transport.DecodeValue(req.Type, req.Value, req.Timestamp)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pub, err := s.publisherFor(req.Topic, v.Kind())
	if err != nil {
		return topicError(err)
	}
	if err := pub.Set(v); err != nil {
		return topicError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// publisherFor returns the server's retained publisher for a topic, acquiring
// it on first use. Releasing per request would retire the topic between
// writes, so REST publishers live until the server closes.
func (s *Server) publisherFor(topic string, kind value.Kind) (*table.Publisher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pub, ok := s.pubs[topic]; ok {
		return pub, nil
	}
	pub, err := s.inst.Publish(topic, kind)
	if err != nil {
		return nil, err
	}
	s.pubs[topic] = pub
	return pub, nil
}

// PropertiesRequest is the DTO for POST /api/properties. A null entry in the
// delta deletes that key.
type PropertiesRequest struct {
	Topic      string         `json:"topic" validate:"required"`
	Properties map[string]any `json:"properties" validate:"required"`
}

func (s *Server) handleSetProperties(c echo.Context) error {
	var req PropertiesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.inst.SetProperties(req.Topic, req.Properties); err != nil {
		return topicError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// topicError maps instance errors onto HTTP status codes.
func topicError(err error) error {
	switch {
	case table.IsInvalidName(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case table.IsTypeMismatch(err):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case table.IsInvalidHandle(err):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
