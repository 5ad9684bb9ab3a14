package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/parlorgames/parlor/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Watchers only send control frames.
	maxMessageSize = 512
	sendBuffer     = 16
)

// renderFunc produces the payload for one viewer. viewer is zero for
// anonymous watchers.
type renderFunc func(viewer int64) ([]byte, error)

// watcher is one websocket connection following a session.
type watcher struct {
	key    session.Key
	viewer int64
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func (w *watcher) close() {
	w.once.Do(func() {
		close(w.done)
		_ = w.conn.Close()
	})
}

// Hub fans state snapshots out to the watchers of each session.
type Hub struct {
	logger   zerolog.Logger
	clock    quartz.Clock
	mu       sync.RWMutex
	watchers map[session.Key]map[*watcher]struct{}
}

// NewHub constructs an empty hub. clock drives the keepalive pings.
func NewHub(logger zerolog.Logger, clock quartz.Clock) *Hub {
	return &Hub{
		logger:   logger.With().Str("component", "hub").Logger(),
		clock:    clock,
		watchers: make(map[session.Key]map[*watcher]struct{}),
	}
}

func (h *Hub) add(w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.watchers[w.key]
	if !ok {
		set = make(map[*watcher]struct{})
		h.watchers[w.key] = set
	}
	set[w] = struct{}{}
}

func (h *Hub) remove(w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.watchers[w.key]; ok {
		delete(set, w)
		if len(set) == 0 {
			delete(h.watchers, w.key)
		}
	}
}

// Count returns the number of watchers following key.
func (h *Hub) Count(key session.Key) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[key])
}

// Publish renders and queues a snapshot for every watcher of key. Watchers
// that cannot keep up are disconnected.
func (h *Hub) Publish(key session.Key, render renderFunc) {
	h.mu.RLock()
	targets := make([]*watcher, 0, len(h.watchers[key]))
	for w := range h.watchers[key] {
		targets = append(targets, w)
	}
	h.mu.RUnlock()

	for _, w := range targets {
		data, err := render(w.viewer)
		if err != nil {
			h.logger.Error().Err(err).Str("game", string(key.Game)).Int64("chat_id", key.ChatID).Msg("Failed to render snapshot")
			continue
		}
		select {
		case w.send <- data:
		case <-w.done:
		default:
			h.logger.Warn().Int64("chat_id", key.ChatID).Msg("Watcher too slow, disconnecting")
			w.close()
		}
	}
}

// Close disconnects every watcher.
func (h *Hub) Close() {
	h.mu.Lock()
	all := h.watchers
	h.watchers = make(map[session.Key]map[*watcher]struct{})
	h.mu.Unlock()

	for _, set := range all {
		for w := range set {
			w.close()
		}
	}
}

// serve upgrades the request and streams snapshots until the peer leaves.
// initial is queued as soon as the watcher is registered.
func (h *Hub) serve(upgrader *websocket.Upgrader, rw http.ResponseWriter, r *http.Request, key session.Key, initial renderFunc) {
	var viewer int64
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		viewer, _ = strconv.ParseInt(raw, 10, 64)
	}

	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	w := &watcher{
		key:    key,
		viewer: viewer,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
	h.add(w)
	// Snapshots carry a version so a publish racing the initial one is
	// harmless.
	if data, err := initial(viewer); err == nil {
		select {
		case w.send <- data:
		default:
		}
	}
	h.logger.Debug().Str("game", string(key.Game)).Int64("chat_id", key.ChatID).Int64("viewer", viewer).Msg("Watcher connected")

	go w.writePump(h.clock)
	w.readPump()

	h.remove(w)
	h.logger.Debug().Str("game", string(key.Game)).Int64("chat_id", key.ChatID).Msg("Watcher disconnected")
}

func (w *watcher) readPump() {
	defer w.close()

	w.conn.SetReadLimit(maxMessageSize)
	_ = w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump owns all writes to the connection. Write deadlines stay on the
// wall clock since the network stack compares them against real time.
func (w *watcher) writePump(clock quartz.Clock) {
	ticker := clock.NewTicker(pingPeriod, "hub", "ping")
	defer func() {
		ticker.Stop()
		w.close()
	}()

	for {
		select {
		case data := <-w.send:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-w.done:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = w.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
