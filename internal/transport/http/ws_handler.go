package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"quiz-battle/internal/app"
	"quiz-battle/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.GameService, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logger,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type teamsPayload struct {
	Team1 string `json:"team1"`
	Team2 string `json:"team2"`
}

type eventPayload struct {
	Index int            `json:"index"`
	Team  domain.TeamKey `json:"team"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// eventTypes maps inbound message types to round events.
var eventTypes = map[string]domain.EventType{
	"letter":    domain.EventSelectLetter,
	"undo":      domain.EventUndoLetter,
	"option":    domain.EventSelectOption,
	"attribute": domain.EventAttribute,
	"cancel":    domain.EventCancel,
	"submit":    domain.EventSubmit,
}

// ServeWS upgrades HTTP requests to websockets. Every connection receives the
// full game view on connect and after every change.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	updates, cancel := h.service.Subscribe(ctx)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Msg("ws write failed")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: view}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

read:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, err := range h.handle(ctx, inbound) {
			if err == nil {
				continue
			}
			msg := outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error(), Code: errorCode(err)}}
			if !enqueue(send, writerDone, msg) {
				break read
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// enqueue hands msg to the writer. It returns false once the writer has
// stopped, instead of blocking on a queue nobody drains.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

// handle applies one inbound message. State changes reach the client through
// the subscription; only failures are returned.
func (h *WSHandler) handle(ctx context.Context, in inboundMessage) []error {
	switch in.Type {
	case "start", "teams":
		var p teamsPayload
		if err := decodePayload(in.Payload, &p); err != nil {
			return []error{err}
		}
		if in.Type == "start" {
			h.service.StartGame(ctx, p.Team1, p.Team2)
		} else {
			h.service.SetTeamNames(ctx, p.Team1, p.Team2)
		}
		return nil
	case "reset":
		h.service.ResetGame(ctx)
		return nil
	case "enter":
		_, err := h.service.EnterRound(ctx)
		return []error{err}
	case "abandon":
		_, err := h.service.AbandonRound(ctx)
		return []error{err}
	case "batch":
		var msgs []inboundMessage
		if err := decodePayload(in.Payload, &msgs); err != nil {
			return []error{err}
		}
		evs := make([]domain.Event, 0, len(msgs))
		for _, msg := range msgs {
			ev, err := toEvent(msg)
			if err != nil {
				return []error{err}
			}
			evs = append(evs, ev)
		}
		_, errs := h.service.DispatchBatch(ctx, evs)
		return errs
	}

	ev, err := toEvent(in)
	if err != nil {
		return []error{err}
	}
	_, err = h.service.Dispatch(ctx, ev)
	return []error{err}
}

var (
	errUnsupportedMessage = errors.New("unsupported message type")
	errInvalidPayload     = errors.New("invalid payload")
)

func toEvent(in inboundMessage) (domain.Event, error) {
	typ, ok := eventTypes[in.Type]
	if !ok {
		return domain.Event{}, errUnsupportedMessage
	}
	var p eventPayload
	if err := decodePayload(in.Payload, &p); err != nil {
		return domain.Event{}, err
	}
	return domain.Event{Type: typ, Team: p.Team, Index: p.Index}, nil
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errInvalidPayload
	}
	return nil
}

// errorCode gives clients a stable identifier for the failures they show.
func errorCode(err error) string {
	codes := []struct {
		err  error
		code string
	}{
		{domain.ErrAlreadyAnswered, "already_answered"},
		{domain.ErrNotYourTurn, "not_your_turn"},
		{domain.ErrQuestionLocked, "question_locked"},
		{domain.ErrNotReady, "not_ready"},
		{domain.ErrRoundComplete, "round_complete"},
		{domain.ErrNoActiveRound, "no_active_round"},
		{domain.ErrGameFinished, "game_finished"},
		{domain.ErrTeamRequired, "team_required"},
		{domain.ErrNoSelection, "no_selection"},
		{domain.ErrEmptyPool, "empty_pool"},
		{domain.ErrPoolNotFound, "pool_not_found"},
		{domain.ErrInvalidPool, "invalid_pool"},
		{errUnsupportedMessage, "unsupported_message"},
		{errInvalidPayload, "invalid_payload"},
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "invalid_action"
}
