package service

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/AWolf81/memory-lane/internal/compress"
	"github.com/AWolf81/memory-lane/internal/model"
	"github.com/AWolf81/memory-lane/internal/store"
)

// Client speaks the line protocol to a running server. One connection per
// request keeps the client stateless and the server's accounting simple.
type Client struct {
	path    string
	timeout time.Duration
}

// NewClient targets the socket at path.
func NewClient(path string) *Client {
	return &Client{path: path, timeout: 30 * time.Second}
}

func (c *Client) do(req Request, timeout time.Duration) (json.RawMessage, error) {
	conn, err := net.DialTimeout("unix", c.path, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial service: %w", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(timeout))

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return nil, fmt.Errorf("service closed connection without a response")
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Status != StatusSuccess {
		if sentinel := sentinelFor(resp.Code); sentinel != nil {
			return nil, fmt.Errorf("%w: %s", sentinel, resp.Error)
		}
		return nil, fmt.Errorf("service error: %s", resp.Error)
	}
	return resp.Data, nil
}

// Ping reports whether a live server answers on the socket. It uses a
// short deadline so stale-socket detection stays snappy.
func (c *Client) Ping() bool {
	_, err := c.do(Request{Action: ActionPing}, 2*time.Second)
	return err == nil
}

// Stats fetches aggregate store statistics.
func (c *Client) Stats() (*store.Stats, error) {
	data, err := c.do(Request{Action: ActionGetStats}, c.timeout)
	if err != nil {
		return nil, err
	}
	var stats store.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("parse stats: %w", err)
	}
	return &stats, nil
}

// Memories lists entries, optionally filtered by category.
func (c *Client) Memories(category string) ([]model.Entry, error) {
	data, err := c.do(Request{Action: ActionGetMemories, Category: category}, c.timeout)
	if err != nil {
		return nil, err
	}
	var entries []model.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse memories: %w", err)
	}
	return entries, nil
}

// AddMemory inserts a new entry and returns the stored copy.
func (c *Client) AddMemory(p store.AddParams) (*model.Entry, error) {
	data, err := c.do(Request{
		Action:    ActionAddMemory,
		Category:  p.Category,
		Content:   p.Content,
		Source:    p.Source,
		Relevance: p.Relevance,
	}, c.timeout)
	if err != nil {
		return nil, err
	}
	var entry model.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parse entry: %w", err)
	}
	return &entry, nil
}

// Context requests a compressed context block.
func (c *Client) Context(query, category string, tokenBudget int) (*compress.Result, error) {
	data, err := c.do(Request{
		Action:      ActionGetContext,
		Query:       query,
		Category:    category,
		TokenBudget: tokenBudget,
	}, c.timeout)
	if err != nil {
		return nil, err
	}
	var res compress.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse context result: %w", err)
	}
	return &res, nil
}

// Prune applies retention limits, returning the removed count.
func (c *Client) Prune(maxSize int, minRelevance float64) (int, error) {
	data, err := c.do(Request{Action: ActionPrune, MaxSize: maxSize, MinRelevance: minRelevance}, c.timeout)
	if err != nil {
		return 0, err
	}
	var out struct {
		Removed int `json:"removed"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("parse prune result: %w", err)
	}
	return out.Removed, nil
}

// UpdateUsage adds usage hits to an entry.
func (c *Client) UpdateUsage(id string, count int) (*model.Entry, error) {
	data, err := c.do(Request{Action: ActionUpdateUsage, ID: id, Count: count}, c.timeout)
	if err != nil {
		return nil, err
	}
	var entry model.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parse entry: %w", err)
	}
	return &entry, nil
}

// Shutdown asks the server to drain and exit.
func (c *Client) Shutdown() error {
	_, err := c.do(Request{Action: ActionShutdown}, c.timeout)
	return err
}
