package service

import (
	"encoding/json"
	"errors"

	"github.com/AWolf81/memory-lane/internal/model"
)

// Protocol actions. One request per line, one response per line.
const (
	ActionPing        = "ping"
	ActionGetStats    = "get_stats"
	ActionGetMemories = "get_memories"
	ActionAddMemory   = "add_memory"
	ActionGetContext  = "get_context"
	ActionPrune       = "prune"
	ActionUpdateUsage = "update_usage"
	ActionShutdown    = "shutdown"
)

// Request is a single newline-delimited protocol message. Arguments are
// flat; unused fields are simply omitted for a given action.
type Request struct {
	Action       string  `json:"action"`
	Category     string  `json:"category,omitempty"`
	Content      string  `json:"content,omitempty"`
	Source       string  `json:"source,omitempty"`
	Relevance    float64 `json:"relevance,omitempty"`
	Query        string  `json:"query,omitempty"`
	TokenBudget  int     `json:"token_budget,omitempty"`
	ID           string  `json:"id,omitempty"`
	Count        int     `json:"count,omitempty"`
	MaxSize      int     `json:"max_size,omitempty"`
	MinRelevance float64 `json:"min_relevance,omitempty"`
}

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error codes carried alongside the message so clients can map a failure
// back to the right sentinel without string matching.
const (
	CodeInvalidCategory   = "invalid_category"
	CodeNotFound          = "not_found"
	CodeMalformedRequest  = "malformed_request"
	CodeStoreCorruption   = "store_corruption"
	CodeCapabilityMissing = "capability_unavailable"
	CodeInternal          = "internal"
)

// Response is the single reply to a Request.
type Response struct {
	Status string          `json:"status"`
	Code   string          `json:"code,omitempty"`
	Error  string          `json:"error,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

func successResponse(v any) Response {
	if v == nil {
		return Response{Status: StatusSuccess}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return errorResponse(err)
	}
	return Response{Status: StatusSuccess, Data: b}
}

func errorResponse(err error) Response {
	return Response{Status: StatusError, Code: errCode(err), Error: err.Error()}
}

func errCode(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidCategory):
		return CodeInvalidCategory
	case errors.Is(err, model.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, model.ErrMalformedRequest):
		return CodeMalformedRequest
	case errors.Is(err, model.ErrStoreCorruption):
		return CodeStoreCorruption
	case errors.Is(err, model.ErrCapabilityUnavailable):
		return CodeCapabilityMissing
	default:
		return CodeInternal
	}
}

// sentinelFor maps a wire error code back to the matching sentinel so
// errors.Is works across the socket boundary.
func sentinelFor(code string) error {
	switch code {
	case CodeInvalidCategory:
		return model.ErrInvalidCategory
	case CodeNotFound:
		return model.ErrNotFound
	case CodeMalformedRequest:
		return model.ErrMalformedRequest
	case CodeStoreCorruption:
		return model.ErrStoreCorruption
	case CodeCapabilityMissing:
		return model.ErrCapabilityUnavailable
	default:
		return nil
	}
}
