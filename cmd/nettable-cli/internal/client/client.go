package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nfrund/nettable/internal/server"
	"github.com/nfrund/nettable/internal/table"
)

// Client is a thin wrapper over the server's JSON API.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the server at base, e.g. "http://localhost:8735".
func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// ListTopics fetches every topic matching the prefix. An empty prefix matches
// everything.
func (c *Client) ListTopics(prefix string) ([]table.TopicInfo, error) {
	u := c.base + "/api/topics"
	if prefix != "" {
		u += "?prefix=" + url.QueryEscape(prefix)
	}

	var infos []table.TopicInfo
	if err := c.getJSON(u, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// GetTopic fetches one topic by name.
func (c *Client) GetTopic(name string) (table.TopicInfo, error) {
	var info table.TopicInfo
	err := c.getJSON(c.base+"/api/topics"+name, &info)
	return info, err
}

// Stats fetches the instance statistics.
func (c *Client) Stats() (server.StatsResponse, error) {
	var stats server.StatsResponse
	err := c.getJSON(c.base+"/api/stats", &stats)
	return stats, err
}

// Publish writes one value through the server.
func (c *Client) Publish(req server.PublishRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+"/api/publish", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return httpError(resp)
	}
	return nil
}

func (c *Client) getJSON(u string, out any) error {
	resp, err := c.http.Get(u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return httpError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func httpError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
}
