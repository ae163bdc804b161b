// Package statusfeed mirrors a life.Engine's per-generation status line
// to remote WebSocket subscribers, as an optional companion to the
// terminal display.
package statusfeed

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Config holds the feed's compile-time constants, mirrored on
// life.Config's plain-struct-plus-defaults shape.
type Config struct {
	HTTPAddr      string
	PingInterval  time.Duration
	SendQueueSize int
}

// DefaultConfig mirrors the reference tool's defaults.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:      ":8089",
		PingInterval:  30 * time.Second,
		SendQueueSize: 8,
	}
}

// StatusUpdate is the JSON payload pushed to subscribers each tick: the
// §6 one-line status string plus the counters it's built from, and the
// current display buffer (one string per row, status row included) so a
// remote monitor can mirror the terminal without its own tcell session.
type StatusUpdate struct {
	Generation uint64   `json:"generation"`
	Population int      `json:"population"`
	Births     uint64   `json:"births"`
	Deaths     uint64   `json:"deaths"`
	Status     string   `json:"status"`
	Rows       []string `json:"rows,omitempty"`
}

// subscriber is one live WebSocket connection.
//
// Grounded on concurrentanalyticsdashboard.go's WebSocketConnection /
// websocketSender pair: a per-connection send queue drained by a
// dedicated goroutine, plus a ping ticker, rather than writing directly
// from the broadcast call (which would serialize all subscribers behind
// the slowest one's network write).
type subscriber struct {
	conn      *websocket.Conn
	sendQueue chan []byte
}

// Feed is the remote status mirror: an HTTP server upgrading connections
// to WebSocket and broadcasting StatusUpdate JSON to every subscriber.
type Feed struct {
	cfg Config

	upgrader websocket.Upgrader
	server   *http.Server

	mu   sync.RWMutex
	subs map[*subscriber]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Feed; call Start to begin serving.
func New(cfg Config) *Feed {
	ctx, cancel := context.WithCancel(context.Background())
	f := &Feed{
		cfg:    cfg,
		subs:   make(map[*subscriber]struct{}),
		ctx:    ctx,
		cancel: cancel,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", f.handleWebSocket)
	f.server = &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	return f
}

// Start launches the HTTP server in the background. Listen errors after
// startup are logged, not propagated, per spec.md §7's "display push
// error: logged and swallowed" tolerance extended to this optional
// collaborator.
func (f *Feed) Start() {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		if err := f.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("statusfeed: server error: %v", err)
		}
	}()
}

// Stop shuts the HTTP server down and closes all subscriber connections.
func (f *Feed) Stop() {
	f.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f.server.Shutdown(ctx)

	f.mu.Lock()
	for s := range f.subs {
		s.conn.Close()
	}
	f.mu.Unlock()

	f.wg.Wait()
}

// Publish broadcasts a status update to every connected subscriber,
// dropping it for any subscriber whose send queue is full rather than
// blocking the caller (the engine's main generation loop).
func (f *Feed) Publish(u StatusUpdate) {
	data, err := json.Marshal(u)
	if err != nil {
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for s := range f.subs {
		select {
		case s.sendQueue <- data:
		default:
		}
	}
}

func (f *Feed) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("statusfeed: upgrade error: %v", err)
		return
	}

	s := &subscriber{conn: conn, sendQueue: make(chan []byte, f.cfg.SendQueueSize)}

	f.mu.Lock()
	f.subs[s] = struct{}{}
	f.mu.Unlock()

	f.wg.Add(1)
	go f.serve(s)
}

func (f *Feed) serve(s *subscriber) {
	defer f.wg.Done()
	defer func() {
		f.mu.Lock()
		delete(f.subs, s)
		f.mu.Unlock()
		s.conn.Close()
	}()

	go f.sender(s)

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *Feed) sender(s *subscriber) {
	ticker := time.NewTicker(f.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.ctx.Done():
			return
		case data := <-s.sendQueue:
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SubscriberCount reports the number of currently connected subscribers,
// exposed for diagnostics and tests.
func (f *Feed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
