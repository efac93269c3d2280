package signaling

import "encoding/json"

// Message types for signaling protocol.
const (
	TypeRegister           = "register"
	TypeRegistered         = "registered"
	TypeListSenders        = "list-senders"
	TypeSenders            = "senders"
	TypeSendersUpdated     = "senders-updated"
	TypeOffer              = "offer"
	TypeAnswer             = "answer"
	TypeICECandidate       = "ice-candidate"
	TypePing               = "ping"
	TypePong               = "pong"
	TypeError              = "error"
	TypeSenderDisconnected = "sender-disconnected"
)

// ClientType distinguishes sender from viewer.
const (
	ClientTypeSender = "sender"
	ClientTypeViewer = "viewer"
)

// Message is the envelope for all signaling messages.
type Message struct {
	Type       string          `json:"type"`
	ID         string          `json:"id,omitempty"`
	ClientType string          `json:"clientType,omitempty"`
	From       string          `json:"from,omitempty"`
	Target     string          `json:"target,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	List       []SenderInfo    `json:"list,omitempty"`
	SenderID   string          `json:"senderId,omitempty"`
	Msg        string          `json:"message,omitempty"`
	Timestamp  int64           `json:"timestamp,omitempty"`
}

// SenderInfo describes a sender in the sender list.
type SenderInfo struct {
	ID     string `json:"id"`
	Online bool   `json:"online"`
}

// FirstOnline returns the ID of the first online sender in list.
func FirstOnline(list []SenderInfo) (string, bool) {
	for _, s := range list {
		if s.Online && s.ID != "" {
			return s.ID, true
		}
	}
	return "", false
}
