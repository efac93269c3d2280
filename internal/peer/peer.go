// Package peer sets up the WebRTC connection between a sender and a viewer.
package peer

import (
	"encoding/json"
	"sync"

	"github.com/pion/webrtc/v4"

	internallog "github.com/junsooki/lutview/internal/logging"
)

// DefaultICEServers is used when no STUN/TURN urls are configured.
var DefaultICEServers = []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"}

// NewPeerConnection creates a configured PeerConnection.
func NewPeerConnection(iceURLs []string) (*webrtc.PeerConnection, error) {
	if len(iceURLs) == 0 {
		iceURLs = DefaultICEServers
	}
	cfg := webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: iceURLs}},
	}
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	log := internallog.NewLogger("peer")
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Infof("peer connection state: %s", state.String())
	})
	return pc, nil
}

// candidateQueue holds remote candidates that arrive before the remote
// description is set and applies them once it is.
type candidateQueue struct {
	mu      sync.Mutex
	ready   bool
	pending []webrtc.ICECandidateInit
}

func (q *candidateQueue) add(pc *webrtc.PeerConnection, payload json.RawMessage) error {
	var c webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &c); err != nil {
		return err
	}
	q.mu.Lock()
	if !q.ready {
		q.pending = append(q.pending, c)
		q.mu.Unlock()
		return nil
	}
	q.mu.Unlock()
	return pc.AddICECandidate(c)
}

// flush marks the remote description as set and applies queued candidates.
func (q *candidateQueue) flush(pc *webrtc.PeerConnection) error {
	q.mu.Lock()
	q.ready = true
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	var firstErr error
	for _, c := range pending {
		if err := pc.AddICECandidate(c); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
