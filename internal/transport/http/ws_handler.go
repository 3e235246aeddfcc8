package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"mock-exam-service/internal/app"
	"mock-exam-service/internal/domain"
	"mock-exam-service/internal/report"
)

// WSHandler is the presentation adapter: it renders the bank and session
// state to clients and turns their events (start, answer, submit) into
// session operations. All exam logic stays in the app layer.
type WSHandler struct {
	service      *app.ExamService
	tickInterval time.Duration
	upgrader     websocket.Upgrader
}

func NewWSHandler(service *app.ExamService, tickInterval time.Duration) *WSHandler {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &WSHandler{
		service:      service,
		tickInterval: tickInterval,
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

type answerPayload struct {
	Subject       string `json:"subject"`
	QuestionIndex int    `json:"questionIndex"`
	OptionKey     string `json:"optionKey"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// bankView is the client-facing bank: answer keys stripped.
type bankView struct {
	ID       string            `json:"id"`
	Subjects []bankSubjectView `json:"subjects"`
}

type bankSubjectView struct {
	Name      string             `json:"name"`
	Questions []bankQuestionView `json:"questions"`
}

type bankQuestionView struct {
	Text    string            `json:"question"`
	Options map[string]string `json:"options"`
}

type statePayload struct {
	Answers   domain.AnswerSet `json:"answers"`
	Remaining int              `json:"remaining"`
	Submitted bool             `json:"submitted"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the exam
// session use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	bankID := r.URL.Query().Get("bankId")
	if bankID == "" {
		http.Error(w, "missing bankId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.service.OpenSession(r.Context(), bankID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		first := true
		prevSubmitted := false
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "timer", Payload: update}:
				case <-closeSignals:
					return
				}
				// Submission can happen without a client request (timer
				// expiry); push the results on the transition so the client
				// is never left staring at a dead exam. The initial snapshot
				// is not a transition; connecting to a submitted session is
				// handled below.
				if update.Submitted && !prevSubmitted && !first {
					if result, err := session.Submit(context.Background(), true); err == nil {
						select {
						case send <- outboundMessage[any]{Type: "results", Payload: report.DisplayModel(result)}:
						case <-closeSignals:
							return
						}
					}
				}
				first = false
				prevSubmitted = update.Submitted
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "bank", Payload: redactBank(session.Bank())}
	send <- outboundMessage[any]{Type: "state", Payload: snapshotPayload(session)}
	if session.Phase() == app.PhaseSubmitted {
		if result, err := session.Submit(r.Context(), false); err == nil {
			send <- outboundMessage[any]{Type: "results", Payload: report.DisplayModel(result)}
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			session.Start()
			session.StartTimer(context.Background(), h.tickInterval)
			send <- outboundMessage[any]{Type: "state", Payload: snapshotPayload(session)}
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			if err := session.SelectAnswer(r.Context(), payload.Subject, payload.QuestionIndex, payload.OptionKey); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "state", Payload: snapshotPayload(session)}
		case "submit":
			// A repeat submit is an idempotent re-display; a first submit
			// broadcasts its transition and the forwarder delivers results.
			resubmit := session.Phase() == app.PhaseSubmitted
			result, err := session.Submit(r.Context(), false)
			if err != nil {
				// ErrIncompleteSubmission lands here too: recoverable, the
				// client stays in progress.
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			if resubmit {
				send <- outboundMessage[any]{Type: "results", Payload: report.DisplayModel(result)}
			}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func snapshotPayload(session *app.QuizSession) statePayload {
	state := session.Snapshot()
	return statePayload{
		Answers:   state.Answers,
		Remaining: state.Remaining,
		Submitted: state.Submitted,
	}
}

func redactBank(bank domain.QuestionBank) bankView {
	view := bankView{ID: bank.ID}
	for _, subject := range bank.Subjects {
		sv := bankSubjectView{Name: subject.Name}
		for _, q := range subject.Questions {
			sv.Questions = append(sv.Questions, bankQuestionView{Text: q.Text, Options: q.Options})
		}
		view.Subjects = append(view.Subjects, sv)
	}
	return view
}
