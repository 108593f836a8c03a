package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"quiztaker/internal/app"
	"quiztaker/internal/domain"
	"quiztaker/internal/identity"
)

// Error codes sent to clients in error messages.
const (
	codeQuizUnavailable = "quiz_unavailable"
	codeIncomplete      = "incomplete"
	codeOutOfRange      = "out_of_range"
	codeInvalidAnswer   = "invalid_answer"
	codeUnauthenticated = "unauthenticated"
	codeClosed          = "closed"
	codeBadRequest      = "bad_request"
	codeInternal        = "internal"
)

type WSHandler struct {
	service  *app.QuizService
	identity *identity.Verifier
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, verifier *identity.Verifier) *WSHandler {
	return &WSHandler{
		service:  service,
		identity: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type jumpPayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type tickPayload struct {
	Elapsed int `json:"elapsed"`
}

type resultPayload struct {
	domain.SubmitResult
	Message string `json:"message"`
}

type noticePayload struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and runs one quiz attempt per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	user, err := h.identity.CurrentUser(identity.TokenFromRequest(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "ws: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	attempt, err := h.service.Start(ctx, quizID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		closeNormal(conn, "quiz unavailable")
		return
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				slog.WarnContext(ctx, "ws: write failed", "attempt", attempt.ID(), "error", err)
				// keep draining so producers never block on a dead connection
				for range send {
				}
				return
			}
		}
	}()

	// Ticks are dropped when the buffer is full; the next one carries the total.
	attempt.OnTick(func(elapsed int) {
		select {
		case <-closeSignals:
		case send <- outboundMessage[any]{Type: "tick", Payload: tickPayload{Elapsed: elapsed}}:
		default:
		}
	})

	send <- stateMessage(attempt)

	submitted := false
	for !submitted {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- badRequest("invalid select payload")
				continue
			}
			if err := attempt.SelectAnswer(payload.QuestionID, payload.OptionID); err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- stateMessage(attempt)
		case "next":
			attempt.Next()
			send <- stateMessage(attempt)
		case "previous":
			attempt.Previous()
			send <- stateMessage(attempt)
		case "jump":
			var payload jumpPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- badRequest("invalid jump payload")
				continue
			}
			if err := attempt.JumpTo(payload.Index); err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- stateMessage(attempt)
		case "submit":
			res, err := h.service.Submit(ctx, attempt.ID(), user)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			submitted = true
			send <- outboundMessage[any]{Type: "result", Payload: resultPayload{
				SubmitResult: res,
				Message:      domain.PerformanceMessage(res.Session.Percentage),
			}}
			send <- saveNotice(res)
		default:
			send <- badRequest("unsupported message type")
		}
	}

	close(closeSignals)
	// Abandon is a no-op after a submit; otherwise it stops the timer and
	// waits for it, so no tick can race the close of send.
	h.service.Abandon(context.WithoutCancel(ctx), attempt.ID())
	close(send)
	<-writerDone
	if submitted {
		closeNormal(conn, "submitted")
	}
}

func stateMessage(attempt *app.Attempt) outboundMessage[any] {
	return outboundMessage[any]{Type: "state", Payload: attempt.State()}
}

func saveNotice(res domain.SubmitResult) outboundMessage[any] {
	if res.Saved {
		return outboundMessage[any]{Type: "notice", Payload: noticePayload{
			Level:   "success",
			Message: "Quiz completed and saved.",
		}}
	}
	return outboundMessage[any]{Type: "notice", Payload: noticePayload{
		Level:   "warning",
		Message: "Quiz completed but results could not be saved.",
	}}
}

func badRequest(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: codeBadRequest, Message: message}}
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: errorCode(err), Message: err.Error()}}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuizUnavailable):
		return codeQuizUnavailable
	case errors.Is(err, domain.ErrIncompleteAttempt):
		return codeIncomplete
	case errors.Is(err, domain.ErrIndexOutOfRange):
		return codeOutOfRange
	case errors.Is(err, domain.ErrQuestionNotFound), errors.Is(err, domain.ErrOptionNotFound):
		return codeInvalidAnswer
	case errors.Is(err, domain.ErrUnauthenticated):
		return codeUnauthenticated
	case errors.Is(err, domain.ErrAttemptClosed), errors.Is(err, domain.ErrAttemptNotFound):
		return codeClosed
	default:
		return codeInternal
	}
}

func closeNormal(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(time.Second))
}
