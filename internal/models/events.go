package models

import "encoding/json"

// Client -> server event types, carried on the per-connection WebSocket.
const (
	EventJoinRoom     = "join-room"
	EventAskQuestion  = "ask-question"
	EventFinishAsking = "finish-asking"
	EventStartAnswer  = "start-answer"
	EventStopAnswer   = "stop-answer"

	// WebRTC signaling pass-through, forwarded opaque to the addressed peer.
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"
)

// Server -> client event types.
const (
	EventWaiting            = "waiting"
	EventMatched            = "matched"
	EventQuestionError      = "question-error"
	EventPeerDisconnected   = "peer-disconnected"
	EventTurnUpdated        = "turn-updated"
	EventQuestionReceived   = "question-received"
	EventAIAnswer           = "ai-answer"
	EventInterviewCompleted = "interview-completed"
)

// Reasons carried on question-error events. The two pairing-abort causes are
// deliberately distinct so the client can tell "generate a set first" from
// "your set is used up". Store failures get their own reason so a transient
// outage doesn't send users off to regenerate their questions.
const (
	ReasonNoQuestionSet         = "no-question-set"
	ReasonInsufficientQuestions = "insufficient-questions"
	ReasonServiceError          = "service-error"
)

// Frame is the wire envelope for every event in either direction.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewFrame builds an outbound frame, panicking only on unmarshalable payloads
// (all outbound payloads are plain structs).
func NewFrame(eventType string, payload any) Frame {
	if payload == nil {
		return Frame{Type: eventType}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		panic("models: unmarshalable event payload: " + err.Error())
	}
	return Frame{Type: eventType, Data: data}
}

// MatchedPayload tells a client who it was paired with. PeerID is the
// partner's opaque connection id, the routing key for signaling frames.
type MatchedPayload struct {
	PeerID      string `json:"peerId"`
	PartnerName string `json:"partnerName"`
}

type QuestionErrorPayload struct {
	Reason string `json:"reason"`
}

type TurnUpdatedPayload struct {
	CurrentTurn string `json:"currentTurn"`
}

// QuestionReceivedPayload carries a live question to both sides. The
// canonical answer is deliberately absent.
type QuestionReceivedPayload struct {
	Question      string `json:"question"`
	Section       string `json:"section"`
	InterviewerID string `json:"interviewerId"`
}

// AIAnswerPayload reveals the canonical answer, sent to the interviewer only.
type AIAnswerPayload struct {
	Answer string `json:"answer"`
}

// SignalPayload is the addressed part of a signaling frame. Everything else
// in the frame is forwarded untouched.
type SignalPayload struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
}
