package service

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/AWolf81/memory-lane/internal/logging"
	"github.com/AWolf81/memory-lane/internal/model"
	"github.com/AWolf81/memory-lane/internal/store"
)

// ErrAlreadyRunning reports that a live server already holds the socket.
// Callers treat it as a no-op, not a failure.
var ErrAlreadyRunning = errors.New("memory service already running")

// Server accepts connections on the workspace socket, one goroutine per
// connection. Store mutations are serialized inside the Store itself, so
// handlers never coordinate with each other.
type Server struct {
	engine *Engine
	log    *logging.Logger
	path   string

	ln       net.Listener
	wg       sync.WaitGroup
	quit     chan struct{}
	stopOnce sync.Once
}

// NewServer binds a server to an engine and socket path.
func NewServer(engine *Engine, socketPath string, log *logging.Logger) *Server {
	return &Server{
		engine: engine,
		log:    log,
		path:   socketPath,
		quit:   make(chan struct{}),
	}
}

// Start claims the socket. A socket file answered by a live peer means a
// server is already running (ErrAlreadyRunning); a socket file nobody
// answers on is a stale lease from a dead process and is reclaimed.
func (s *Server) Start() error {
	if _, err := os.Stat(s.path); err == nil {
		if NewClient(s.path).Ping() {
			return ErrAlreadyRunning
		}
		s.log.Infof("reclaiming stale socket %s", s.path)
		if err := os.Remove(s.path); err != nil {
			return fmt.Errorf("reclaim stale socket: %w", err)
		}
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("bind socket %s: %w", s.path, err)
	}
	s.ln = ln
	s.log.Infof("listening on %s", s.path)
	return nil
}

// Serve runs the accept loop until Stop is called. In-flight requests are
// drained before it returns.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.quit:
				s.wg.Wait()
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// Stop closes the listener and releases the socket. Safe to call more than
// once and from handler goroutines.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		if s.ln != nil {
			s.ln.Close()
		}
		os.Remove(s.path)
		s.log.Infof("stopped")
	})
}

// SocketPath returns the address the server is bound to.
func (s *Server) SocketPath() string { return s.path }

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			// A bad line gets a structured error; the connection lives on.
			enc.Encode(errorResponse(fmt.Errorf("%w: %v", model.ErrMalformedRequest, err)))
			continue
		}

		resp, shutdown := s.dispatch(req)
		if err := enc.Encode(resp); err != nil {
			// Client went away mid-response; its loss alone.
			s.log.Errorf("write response: %v", err)
			return
		}
		if shutdown {
			go s.Stop()
			return
		}
	}
}

// dispatch routes one request. The second return asks handleConn to tear
// the whole server down after the ack has been written.
func (s *Server) dispatch(req Request) (Response, bool) {
	switch req.Action {
	case ActionPing:
		return successResponse(map[string]string{"reply": "pong"}), false

	case ActionGetStats:
		stats, err := s.engine.Stats()
		if err != nil {
			return errorResponse(err), false
		}
		return successResponse(stats), false

	case ActionGetMemories:
		entries, err := s.engine.Memories(req.Category)
		if err != nil {
			return errorResponse(err), false
		}
		return successResponse(entries), false

	case ActionAddMemory:
		entry, err := s.engine.AddMemory(store.AddParams{
			Category:  req.Category,
			Content:   req.Content,
			Source:    req.Source,
			Relevance: req.Relevance,
		})
		if err != nil {
			return errorResponse(err), false
		}
		return successResponse(entry), false

	case ActionGetContext:
		res, err := s.engine.Context(context.Background(), req.Query, req.Category, req.TokenBudget)
		if err != nil {
			return errorResponse(err), false
		}
		return successResponse(res), false

	case ActionPrune:
		removed, err := s.engine.Prune(req.MaxSize, req.MinRelevance)
		if err != nil {
			return errorResponse(err), false
		}
		return successResponse(map[string]int{"removed": removed}), false

	case ActionUpdateUsage:
		entry, err := s.engine.UpdateUsage(req.ID, req.Count)
		if err != nil {
			return errorResponse(err), false
		}
		return successResponse(entry), false

	case ActionShutdown:
		return successResponse(map[string]string{"reply": "shutting down"}), true

	default:
		return errorResponse(fmt.Errorf("%w: unknown action %q", model.ErrMalformedRequest, req.Action)), false
	}
}
