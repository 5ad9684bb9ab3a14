package server

import (
	"net/http"

	"github.com/parlorgames/parlor/internal/archive"
	"github.com/parlorgames/parlor/internal/session"
	"github.com/parlorgames/parlor/internal/shotgun"
)

// createSession decodes a create request and opens the session for game.
func (s *Server) createSession(r *http.Request, game session.Game) (session.Session, bool, error) {
	var req CreateSessionRequest
	if err := s.validator.decode(r, "create_session", &req); err != nil {
		return session.Session{}, false, err
	}
	mode := session.ParseMode(req.Mode)
	fallback := s.cfg.TestStake
	if mode == session.ModeReal {
		fallback = s.cfg.RealStake
	}
	return s.store.Create(session.CreateRequest{
		Game:        game,
		ChatID:      req.ChatID,
		CreatorID:   req.UserID,
		CreatorName: req.Username,
		Mode:        mode,
		Stake:       session.ParseStake(req.Stake, fallback),
	}, s.clock.Now())
}

func (s *Server) handleShotgunCreate(w http.ResponseWriter, r *http.Request) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	sess, created, err := s.createSession(r, session.Shotgun)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	key := session.Key{Game: session.Shotgun, ChatID: sess.ChatID}

	room, ok := s.shotgunRooms.get(key.ChatID)
	if created || !ok {
		host := shotgun.Seat{ID: formatID(sess.CreatorID), Name: sess.CreatorName}
		room = newShotgunRoom(key, s.shotgun.NewPendingMatch(host), s.clock.Now())
		if old, replaced := s.shotgunRooms.put(key.ChatID, room); replaced {
			old.stop()
		}
		matchID := room.capture().matchID
		sess, err = s.store.Update(key, func(x *session.Session) error {
			x.MatchID = matchID
			return nil
		})
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		s.logger.Info().
			Int64("chat_id", key.ChatID).
			Int64("creator_id", sess.CreatorID).
			Str("mode", string(sess.Mode)).
			Float64("stake", sess.Stake).
			Str("match_id", matchID).
			Msg("Shotgun session created")
	}
	s.hub.Publish(key, room.capture().render)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, ShotgunResponse{
		Success:        true,
		Session:        &sess,
		ShotgunPayload: room.capture().payload(sess.CreatorID),
	})
}

func (s *Server) handleShotgunGet(w http.ResponseWriter, r *http.Request) {
	id, err := chatID(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	key := session.Key{Game: session.Shotgun, ChatID: id}
	sess, ok := s.store.Get(key)
	if !ok {
		writeError(w, s.logger, session.ErrNotFound)
		return
	}
	room, ok := s.shotgunRooms.get(id)
	if !ok {
		writeError(w, s.logger, errNoGame)
		return
	}
	writeJSON(w, http.StatusOK, ShotgunResponse{
		Success:        true,
		Session:        &sess,
		ShotgunPayload: room.capture().payload(userIDFromQuery(r)),
	})
}

func (s *Server) handleShotgunJoin(w http.ResponseWriter, r *http.Request) {
	id, err := chatID(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var req JoinSessionRequest
	if err := s.validator.decode(r, "join_session", &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	key := session.Key{Game: session.Shotgun, ChatID: id}
	room, ok := s.shotgunRooms.get(id)
	if !ok {
		writeError(w, s.logger, errNoGame)
		return
	}

	sess, err := s.store.Join(key, req.UserID, req.Username, s.clock.Now())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	guest := shotgun.Seat{ID: formatID(req.UserID), Name: req.Username}
	if _, _, err := room.apply(s.shotgun, shotgun.Join{Seat: guest}); err != nil {
		s.unjoin(key)
		writeError(w, s.logger, err)
		return
	}
	s.logger.Info().Int64("chat_id", id).Int64("user_id", req.UserID).Msg("Player joined shotgun session")
	s.hub.Publish(key, room.capture().render)

	writeJSON(w, http.StatusOK, ShotgunResponse{
		Success:        true,
		Session:        &sess,
		ShotgunPayload: room.capture().payload(req.UserID),
	})
}

// unjoin reverts a store join whose room join failed.
func (s *Server) unjoin(key session.Key) {
	_, _ = s.store.Update(key, func(x *session.Session) error {
		x.Player2ID = 0
		x.Player2Name = ""
		x.Status = session.StatusWaiting
		return nil
	})
}

func (s *Server) handleShotgunUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := chatID(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var req ShotgunActionRequest
	if err := s.validator.decode(r, "shotgun_action", &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	key := session.Key{Game: session.Shotgun, ChatID: id}
	sess, err := s.activeSession(key, req.UserID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	room, ok := s.shotgunRooms.get(id)
	if !ok {
		writeError(w, s.logger, errNoGame)
		return
	}
	seat, ok := room.seatOf(formatID(req.UserID))
	if !ok {
		writeError(w, s.logger, errNotAuthorized)
		return
	}

	var action shotgun.Action
	switch req.Action {
	case ActionShoot:
		action = shotgun.Shoot{Player: seat, Target: req.Target}
	case ActionUseBonus:
		action = shotgun.UseBonus{Player: seat, Index: req.BonusIndex}
	default:
		writeError(w, s.logger, badRequest("unknown action %q", req.Action))
		return
	}

	state, _, err := room.apply(s.shotgun, action)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.touch(key)
	s.logger.Debug().
		Int64("chat_id", id).
		Int64("user_id", req.UserID).
		Str("action", req.Action).
		Str("phase", state.Phase.String()).
		Msg("Shotgun action")
	if finished := s.afterShotgunChange(key, room, state); finished != nil {
		sess = *finished
	}

	writeJSON(w, http.StatusOK, ShotgunResponse{
		Success:        true,
		Session:        &sess,
		ShotgunPayload: room.capture().payload(req.UserID),
	})
}

// afterShotgunChange arms the next round or closes out the match, then
// publishes. It returns the updated session when the match finished.
func (s *Server) afterShotgunChange(key session.Key, room *shotgunRoom, state shotgun.State) *session.Session {
	var finished *session.Session
	switch state.Phase {
	case shotgun.RoundEnd:
		room.schedule(s.clock, s.cfg.RoundDelay, func() {
			s.startShotgunRound(key, room)
		})
	case shotgun.Finished:
		if sess, ok := s.finishShotgun(key, room, state); ok {
			finished = &sess
		}
	}
	s.hub.Publish(key, room.capture().render)
	return finished
}

// startShotgunRound reloads the chamber once the round delay has passed.
func (s *Server) startShotgunRound(key session.Key, room *shotgunRoom) {
	if current, ok := s.shotgunRooms.get(key.ChatID); !ok || current != room {
		return
	}
	if sess, ok := s.store.Get(key); !ok || !sess.IsActive() {
		return
	}
	state, _, err := room.apply(s.shotgun, shotgun.StartRound{})
	if err != nil {
		s.logger.Debug().Err(err).Int64("chat_id", key.ChatID).Msg("Round not started")
		return
	}
	s.logger.Info().Int64("chat_id", key.ChatID).Int("round", state.Round).Msg("Shotgun round started")
	s.hub.Publish(key, room.capture().render)
}

func (s *Server) finishShotgun(key session.Key, room *shotgunRoom, state shotgun.State) (session.Session, bool) {
	var winnerID int64
	if w, ok := state.WinnerPlayer(); ok {
		winnerID = parseID(w.ID)
	}
	now := s.clock.Now()
	sess, err := s.store.Update(key, func(x *session.Session) error {
		x.Finish(now, winnerID)
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("chat_id", key.ChatID).Msg("Failed to finish session")
		return sess, false
	}
	s.logger.Info().
		Int64("chat_id", key.ChatID).
		Int64("winner_id", winnerID).
		Bool("draw", state.Draw).
		Msg("Shotgun match finished")
	s.archiveRecord(room.record(sess, now))
	return sess, true
}

// archiveRecord writes rec when an archive is configured. Failures are
// logged; they never fail the request that finished the match.
func (s *Server) archiveRecord(rec *archive.Record) {
	if s.archive == nil {
		return
	}
	path, err := s.archive.Write(rec)
	if err != nil {
		s.logger.Error().Err(err).Str("match_id", rec.MatchID).Msg("Failed to archive match")
		return
	}
	s.logger.Info().Str("match_id", rec.MatchID).Str("path", path).Msg("Match archived")
}
