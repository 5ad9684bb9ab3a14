package server

import (
	"net/http"
	"time"

	"github.com/parlorgames/parlor/internal/blackjack"
	"github.com/parlorgames/parlor/internal/session"
)

// cardsAction builds the engine action for the player in seat.
type cardsAction func(seat int) blackjack.Action

func hitAction(seat int) blackjack.Action    { return blackjack.Hit{Player: seat} }
func standAction(seat int) blackjack.Action  { return blackjack.Stand{Player: seat} }
func splitAction(seat int) blackjack.Action  { return blackjack.Split{Player: seat} }
func switchAction(seat int) blackjack.Action { return blackjack.SwitchHand{Player: seat} }

// Rematch verbs.
const (
	rematchRequest = "request"
	rematchAccept  = "accept"
	rematchDecline = "decline"
)

func (s *Server) handleCardsCreate(w http.ResponseWriter, r *http.Request) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	sess, created, err := s.createSession(r, session.Cards)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	key := session.Key{Game: session.Cards, ChatID: sess.ChatID}

	room, ok := s.cardsRooms.get(key.ChatID)
	if created || !ok {
		host := blackjack.Seat{ID: formatID(sess.CreatorID), Name: sess.CreatorName}
		room = newCardsRoom(key, s.cards.NewGame(host, sess.Stake), s.clock.Now())
		s.cardsRooms.put(key.ChatID, room)
		_, matchID := room.current()
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
			Msg("Cards session created")
	}
	s.hub.Publish(key, room.capture().render)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, CardsResponse{
		Success:      true,
		Session:      &sess,
		CardsPayload: room.capture().payload(),
	})
}

func (s *Server) handleCardsJoin(w http.ResponseWriter, r *http.Request) {
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
	key := session.Key{Game: session.Cards, ChatID: id}
	room, ok := s.cardsRooms.get(id)
	if !ok {
		writeError(w, s.logger, errNoGame)
		return
	}

	sess, err := s.store.Join(key, req.UserID, req.Username, s.clock.Now())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	guest := blackjack.Seat{ID: formatID(req.UserID), Name: req.Username}
	if _, err := room.apply(s.cards, blackjack.Join{Seat: guest}); err != nil {
		s.unjoin(key)
		writeError(w, s.logger, err)
		return
	}
	s.logger.Info().Int64("chat_id", id).Int64("user_id", req.UserID).Msg("Player joined cards session")
	s.hub.Publish(key, room.capture().render)

	writeJSON(w, http.StatusOK, CardsResponse{
		Success:      true,
		Session:      &sess,
		CardsPayload: room.capture().payload(),
	})
}

func (s *Server) handleCardsSession(w http.ResponseWriter, r *http.Request) {
	id, err := chatID(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	sess, ok := s.store.Get(session.Key{Game: session.Cards, ChatID: id})
	if !ok {
		writeError(w, s.logger, session.ErrNotFound)
		return
	}
	room, ok := s.cardsRooms.get(id)
	if !ok {
		writeError(w, s.logger, errNoGame)
		return
	}
	writeJSON(w, http.StatusOK, CardsResponse{
		Success:      true,
		Session:      &sess,
		CardsPayload: room.capture().payload(),
	})
}

// handleCardsGame returns the game view without the session.
func (s *Server) handleCardsGame(w http.ResponseWriter, r *http.Request) {
	id, err := chatID(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	room, ok := s.cardsRooms.get(id)
	if !ok {
		writeError(w, s.logger, errNoGame)
		return
	}
	writeJSON(w, http.StatusOK, CardsResponse{Success: true, CardsPayload: room.capture().payload()})
}

func (s *Server) handleCardsPathAction(action cardsAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := chatID(r)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		userID, err := userIDFromPath(r)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		s.playCards(w, session.Key{Game: session.Cards, ChatID: id}, userID, action)
	}
}

func (s *Server) handleCardsBodyAction(action cardsAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := chatID(r)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		var req PlayerRequest
		if err := s.validator.decode(r, "player_action", &req); err != nil {
			writeError(w, s.logger, err)
			return
		}
		s.playCards(w, session.Key{Game: session.Cards, ChatID: id}, req.UserID, action)
	}
}

// playCards applies one player action and answers with the new view.
func (s *Server) playCards(w http.ResponseWriter, key session.Key, userID int64, action cardsAction) {
	sess, err := s.activeSession(key, userID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	room, ok := s.cardsRooms.get(key.ChatID)
	if !ok {
		writeError(w, s.logger, errNoGame)
		return
	}
	seat, ok := room.seatOf(formatID(userID))
	if !ok {
		writeError(w, s.logger, errNotAuthorized)
		return
	}

	state, err := room.apply(s.cards, action(seat))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.touch(key)
	if state.Status == blackjack.Finished {
		if finished, ok := s.finishCards(key, room, state); ok {
			sess = finished
		}
	}
	s.hub.Publish(key, room.capture().render)

	writeJSON(w, http.StatusOK, CardsResponse{
		Success:      true,
		Session:      &sess,
		CardsPayload: room.capture().payload(),
	})
}

func (s *Server) finishCards(key session.Key, room *cardsRoom, state blackjack.State) (session.Session, bool) {
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
		Bool("push", state.Push).
		Msg("Cards game finished")
	s.archiveRecord(room.record(sess, now))
	return sess, true
}

func (s *Server) handleRematch(w http.ResponseWriter, r *http.Request) {
	id, err := chatID(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	userID, err := userIDFromPath(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	key := session.Key{Game: session.Cards, ChatID: id}
	sess, ok := s.store.Get(key)
	if !ok {
		writeError(w, s.logger, session.ErrNotFound)
		return
	}
	if !sess.Participant(userID) {
		writeError(w, s.logger, errNotAuthorized)
		return
	}
	if sess.Status == session.StatusClosed {
		writeError(w, s.logger, errSessionClosed)
		return
	}
	room, ok := s.cardsRooms.get(id)
	if !ok {
		writeError(w, s.logger, errNoGame)
		return
	}

	resp := RematchResponse{Success: true}
	switch verb := r.PathValue("verb"); verb {
	case rematchRequest, rematchAccept:
		started, err := room.requestRematch(s.cards, userID, verb == rematchAccept, s.clock.Now())
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		resp.Message = "rematch requested, waiting for opponent"
		if started {
			if err := s.reopen(key, room); err != nil {
				writeError(w, s.logger, err)
				return
			}
			payload := room.capture().payload()
			resp.Rematch = true
			resp.Message = "rematch started"
			resp.Match = &payload
		}
	case rematchDecline:
		room.declineRematch()
		resp.Message = "rematch declined"
	default:
		writeError(w, s.logger, badRequest("unknown rematch action %q", verb))
		return
	}
	s.logger.Info().Int64("chat_id", id).Int64("user_id", userID).Str("verb", r.PathValue("verb")).Bool("started", resp.Rematch).Msg("Rematch")
	s.hub.Publish(key, room.capture().render)
	writeJSON(w, http.StatusOK, resp)
}

// reopen moves a finished session back into play for a rematch.
func (s *Server) reopen(key session.Key, room *cardsRoom) error {
	_, matchID := room.current()
	now := s.clock.Now()
	_, err := s.store.Update(key, func(x *session.Session) error {
		x.Status = session.StatusPlaying
		x.MatchID = matchID
		x.WinnerID = 0
		x.FinishedAt = time.Time{}
		x.Touch(now)
		return nil
	})
	return err
}
