package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sprite-ai/wizmerge/internal/merge"
	"github.com/sprite-ai/wizmerge/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocket message types from client.
const (
	wsMsgLoadMerge = "load_merge"
	wsMsgChoose    = "choose"
	wsMsgUndo      = "undo"
	wsMsgFinish    = "finish"
)

// WebSocket message types to client.
const (
	wsMsgSession  = "session"
	wsMsgMerged   = "merged"
	wsMsgDecision = "decision"
	wsMsgResolved = "resolved"
	wsMsgError    = "error"
)

const decisionPending = "pending"

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsSessionResponse greets a new connection.
type wsSessionResponse struct {
	SessionID string `json:"session_id"`
}

// wsChooseMsg is the payload for "choose" and "undo" messages.
type wsChooseMsg struct {
	ConflictIndex int    `json:"conflict_index"`
	Strategy      string `json:"strategy,omitempty"`
}

// wsDecisionResponse confirms a decision.
type wsDecisionResponse struct {
	ConflictIndex int    `json:"conflict_index"`
	Decision      string `json:"decision"`
}

// wsResolvedResponse is sent when the session is finished.
type wsResolvedResponse struct {
	Content  []string           `json:"content"`
	Resolved int                `json:"resolved"`
	Pending  int                `json:"pending"`
	Choices  []wsConflictChoice `json:"choices"`
}

type wsConflictChoice struct {
	ConflictIndex int    `json:"conflict_index"`
	StartLine     int    `json:"start_line"`
	Decision      string `json:"decision"`
}

// resolveSession holds the state for one interactive resolution.
type resolveSession struct {
	id      string
	log     zerolog.Logger
	result  *model.MergeResult
	choices map[int]model.Strategy
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	session := &resolveSession{
		id:      uuid.New().String(),
		choices: make(map[int]model.Strategy),
	}
	session.log = log.With().Str("session", session.id).Logger()
	session.log.Debug().Msg("Resolution session opened")

	s.metrics.wsSessions.Inc()
	defer s.metrics.wsSessions.Dec()

	sendWSMessage(conn, wsMsgSession, wsSessionResponse{SessionID: session.id})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				session.log.Warn().Err(err).Msg("websocket read")
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			sendWSError(conn, "invalid message format")
			continue
		}

		switch msg.Type {
		case wsMsgLoadMerge:
			s.handleWSLoadMerge(conn, session, msg.Data)
		case wsMsgChoose:
			handleWSChoose(conn, session, msg.Data)
		case wsMsgUndo:
			handleWSUndo(conn, session, msg.Data)
		case wsMsgFinish:
			handleWSFinish(conn, session)
		default:
			sendWSError(conn, "unknown message type: "+msg.Type)
		}
	}
}

func (s *Server) handleWSLoadMerge(conn *websocket.Conn, session *resolveSession, data json.RawMessage) {
	var req MergeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		sendWSError(conn, "invalid load_merge data")
		return
	}

	base, ours, theirs, err := mergeInputs(req)
	if err != nil {
		sendWSError(conn, err.Error())
		return
	}

	result := merge.Merge(base, ours, theirs)
	raw := len(result.Conflicts)
	if req.AutoResolve == nil || *req.AutoResolve {
		result = merge.AutoResolve(result)
	}
	s.metrics.observeMerge(raw, len(result.Conflicts))

	session.result = &result
	session.choices = make(map[int]model.Strategy)
	session.log.Debug().Int("conflicts", len(result.Conflicts)).Msg("Merge loaded")

	sendWSMessage(conn, wsMsgMerged, mergeResponse(result))
}

func handleWSChoose(conn *websocket.Conn, session *resolveSession, data json.RawMessage) {
	if session.result == nil {
		sendWSError(conn, "no merge loaded")
		return
	}

	var req wsChooseMsg
	if err := json.Unmarshal(data, &req); err != nil {
		sendWSError(conn, "invalid choose data")
		return
	}
	if req.ConflictIndex < 0 || req.ConflictIndex >= len(session.result.Conflicts) {
		sendWSError(conn, "conflict_index out of range")
		return
	}
	strategy, ok := model.ParseStrategy(req.Strategy)
	if !ok {
		sendWSError(conn, "unknown strategy: "+req.Strategy)
		return
	}

	session.choices[req.ConflictIndex] = strategy

	sendWSMessage(conn, wsMsgDecision, wsDecisionResponse{
		ConflictIndex: req.ConflictIndex,
		Decision:      strategy.String(),
	})
}

func handleWSUndo(conn *websocket.Conn, session *resolveSession, data json.RawMessage) {
	if session.result == nil {
		sendWSError(conn, "no merge loaded")
		return
	}

	var req wsChooseMsg
	if err := json.Unmarshal(data, &req); err != nil {
		sendWSError(conn, "invalid undo data")
		return
	}

	delete(session.choices, req.ConflictIndex)

	sendWSMessage(conn, wsMsgDecision, wsDecisionResponse{
		ConflictIndex: req.ConflictIndex,
		Decision:      decisionPending,
	})
}

func handleWSFinish(conn *websocket.Conn, session *resolveSession) {
	if session.result == nil {
		sendWSError(conn, "no merge loaded")
		return
	}

	resp := wsResolvedResponse{
		Content: nonNil(merge.Resolve(*session.result, session.choices)),
		Choices: make([]wsConflictChoice, 0, len(session.result.Conflicts)),
	}
	for i, c := range session.result.Conflicts {
		choice := wsConflictChoice{ConflictIndex: i, StartLine: c.StartLine, Decision: decisionPending}
		if s, ok := session.choices[i]; ok {
			choice.Decision = s.String()
			resp.Resolved++
		} else {
			resp.Pending++
		}
		resp.Choices = append(resp.Choices, choice)
	}

	session.log.Debug().Int("resolved", resp.Resolved).Int("pending", resp.Pending).Msg("Session finished")
	sendWSMessage(conn, wsMsgResolved, resp)
}

func sendWSMessage(conn *websocket.Conn, msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("ws marshal")
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}
	if err := conn.WriteJSON(msg); err != nil {
		log.Warn().Err(err).Msg("ws write")
	}
}

func sendWSError(conn *websocket.Conn, errMsg string) {
	sendWSMessage(conn, wsMsgError, map[string]string{"message": errMsg})
}
