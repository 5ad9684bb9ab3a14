// Package server exposes shotgun and card matches over HTTP. The server
// owns the canonical match state: clients submit actions, the engines
// validate them and every change is pushed to websocket watchers.
package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/parlorgames/parlor/internal/archive"
	"github.com/parlorgames/parlor/internal/blackjack"
	"github.com/parlorgames/parlor/internal/config"
	"github.com/parlorgames/parlor/internal/randutil"
	"github.com/parlorgames/parlor/internal/session"
	"github.com/parlorgames/parlor/internal/shotgun"
)

// Option configures a Server.
type Option func(*Server)

// WithClock replaces the wall clock. Tests pass a quartz mock.
func WithClock(c quartz.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithRandom replaces the random source shared by both engines. It must be
// safe for concurrent use.
func WithRandom(src randutil.Source) Option {
	return func(s *Server) { s.rng = src }
}

// WithArchive stores finished matches. Without it nothing is archived.
func WithArchive(a *archive.Archive) Option {
	return func(s *Server) { s.archive = a }
}

// Server routes API requests to the session store and the match rooms.
type Server struct {
	cfg       *config.Config
	logger    zerolog.Logger
	clock     quartz.Clock
	rng       randutil.Source
	store     *session.Store
	archive   *archive.Archive
	hub       *Hub
	validator *validator
	upgrader  websocket.Upgrader
	mux       *http.ServeMux

	shotgun *shotgun.Engine
	cards   *blackjack.Engine

	// createMu serialises session creation with room setup.
	createMu     sync.Mutex
	shotgunRooms *registry[*shotgunRoom]
	cardsRooms   *registry[*cardsRoom]
}

// New builds a server from cfg.
func New(cfg *config.Config, logger zerolog.Logger, opts ...Option) (*Server, error) {
	v, err := newValidator()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger.With().Str("component", "server").Logger(),
		clock:     quartz.NewReal(),
		store:     session.NewStore(),
		validator: v,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Watchers are read-only and unauthenticated, like the API.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		shotgunRooms: newRegistry[*shotgunRoom](),
		cardsRooms:   newRegistry[*cardsRoom](),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		seed, _ := randutil.Seed(cfg.Seed)
		s.rng = randutil.NewLocked(seed)
	}
	s.hub = NewHub(logger, s.clock)
	s.shotgun = shotgun.New(s.rng, shotgun.WithMaxRounds(cfg.MaxRounds))
	s.cards = blackjack.New(s.rng, blackjack.WithDecks(cfg.Decks))
	s.mux = s.routes()
	return s, nil
}

// Store exposes the session store.
func (s *Server) Store() *session.Store { return s.store }

// Hub exposes the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws/{game}/{id}", s.handleStream)

	mux.HandleFunc("POST /api/shotgun/sessions", s.handleShotgunCreate)
	mux.HandleFunc("GET /api/shotgun/sessions", s.handleList(session.Shotgun))
	mux.HandleFunc("GET /api/shotgun/sessions/{id}", s.handleShotgunGet)
	mux.HandleFunc("POST /api/shotgun/sessions/{id}/join", s.handleShotgunJoin)
	mux.HandleFunc("POST /api/shotgun/sessions/{id}/close", s.handleClose(session.Shotgun))
	mux.HandleFunc("POST /api/shotgun/game/{id}/update", s.handleShotgunUpdate)

	mux.HandleFunc("POST /api/cards/sessions", s.handleCardsCreate)
	mux.HandleFunc("GET /api/cards/sessions", s.handleList(session.Cards))
	mux.HandleFunc("GET /api/cards/sessions/{id}", s.handleCardsSession)
	mux.HandleFunc("POST /api/cards/sessions/{id}/join", s.handleCardsJoin)
	mux.HandleFunc("POST /api/cards/sessions/{id}/close", s.handleClose(session.Cards))
	mux.HandleFunc("GET /api/cards/game/{id}", s.handleCardsGame)
	mux.HandleFunc("POST /api/cards/hit/{id}/{user}", s.handleCardsPathAction(hitAction))
	mux.HandleFunc("POST /api/cards/stand/{id}/{user}", s.handleCardsPathAction(standAction))
	mux.HandleFunc("POST /api/cards/game/{id}/split", s.handleCardsBodyAction(splitAction))
	mux.HandleFunc("POST /api/cards/game/{id}/switch-hand", s.handleCardsBodyAction(switchAction))
	mux.HandleFunc("POST /api/cards/rematch/{verb}/{id}/{user}", s.handleRematch)
	return mux
}

// Handler returns the HTTP handler with request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.clock.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.mux.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", s.clock.Since(start)).
			Msg("Request")
	})
}

// Run serves until ctx is cancelled, reaping idle sessions alongside.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return s.reapLoop(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info().Msg("Shutting down server")
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Health{
		Status:   "ok",
		Sessions: s.store.Len(),
		Rooms:    s.shotgunRooms.len() + s.cardsRooms.len(),
	})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	key, err := sessionKey(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	var render renderFunc
	switch key.Game {
	case session.Shotgun:
		if room, ok := s.shotgunRooms.get(key.ChatID); ok {
			render = room.capture().render
		}
	case session.Cards:
		if room, ok := s.cardsRooms.get(key.ChatID); ok {
			render = room.capture().render
		}
	}
	if render == nil {
		writeError(w, s.logger, errNoGame)
		return
	}
	s.hub.serve(&s.upgrader, w, r, key, render)
}

func (s *Server) handleList(game session.Game) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, SessionList{Success: true, Sessions: s.store.ListWaiting(game)})
	}
}

func (s *Server) handleClose(game session.Game) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := chatID(r)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		key := session.Key{Game: game, ChatID: id}
		sess, err := s.closeSession(key, "closed by request")
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, CloseResponse{Success: true, Session: sess})
	}
}

// closeSession marks the session closed and stops its pending timers.
func (s *Server) closeSession(key session.Key, reason string) (session.Session, error) {
	sess, err := s.store.Update(key, func(sess *session.Session) error {
		sess.Close(s.clock.Now())
		return nil
	})
	if err != nil {
		return sess, err
	}
	switch key.Game {
	case session.Shotgun:
		if room, ok := s.shotgunRooms.get(key.ChatID); ok {
			room.stop()
			s.hub.Publish(key, room.capture().render)
		}
	case session.Cards:
		if room, ok := s.cardsRooms.get(key.ChatID); ok {
			s.hub.Publish(key, room.capture().render)
		}
	}
	s.logger.Info().Str("game", string(key.Game)).Int64("chat_id", key.ChatID).Str("reason", reason).Msg("Session closed")
	return sess, nil
}

// activeSession returns the session for key, requiring userID to hold a
// seat and the session to be open.
func (s *Server) activeSession(key session.Key, userID int64) (session.Session, error) {
	sess, ok := s.store.Get(key)
	if !ok {
		return sess, session.ErrNotFound
	}
	if !sess.Participant(userID) {
		return sess, errNotAuthorized
	}
	if !sess.IsActive() {
		return sess, errSessionClosed
	}
	return sess, nil
}

func (s *Server) touch(key session.Key) {
	_, _ = s.store.Update(key, func(sess *session.Session) error {
		sess.Touch(s.clock.Now())
		return nil
	})
}

func sessionKey(r *http.Request) (session.Key, error) {
	game, err := session.ParseGame(r.PathValue("game"))
	if err != nil {
		return session.Key{}, badRequest("%v", err)
	}
	id, err := chatID(r)
	if err != nil {
		return session.Key{}, err
	}
	return session.Key{Game: game, ChatID: id}, nil
}

func chatID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid chat id %q", r.PathValue("id"))
	}
	return id, nil
}

func userIDFromPath(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("user"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid user id %q", r.PathValue("user"))
	}
	return id, nil
}

func userIDFromQuery(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	return id
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

func parseID(id string) int64 {
	v, _ := strconv.ParseInt(id, 10, 64)
	return v
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("server: response writer cannot be hijacked")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
