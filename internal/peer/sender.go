package peer

import (
	"encoding/json"

	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"

	internallog "github.com/junsooki/lutview/internal/logging"
	"github.com/junsooki/lutview/internal/transport"
)

// Signaler relays session descriptions and candidates to a remote client.
type Signaler interface {
	SendOffer(target string, payload json.RawMessage) error
	SendAnswer(target string, payload json.RawMessage) error
	SendICECandidate(target string, payload json.RawMessage) error
}

// Sender manages the frame-producing side of the WebRTC connection.
type Sender struct {
	pc        *webrtc.PeerConnection
	sig       Signaler
	transport *transport.DataChannelTransport
	viewerID  string // the viewer we're connected to
	onReady   func()
	remote    candidateQueue
	log       logging.LeveledLogger
}

// NewSender creates a Sender peer manager.
func NewSender(sig Signaler, iceURLs []string) (*Sender, error) {
	pc, err := NewPeerConnection(iceURLs)
	if err != nil {
		return nil, err
	}

	s := &Sender{
		pc:  pc,
		sig: sig,
		log: internallog.NewLogger("sender"),
	}

	// Frames tolerate loss: a late frame is useless. LUTs must arrive intact.
	framesOrdered := false
	framesMaxRetransmits := uint16(0)
	framesDC, err := pc.CreateDataChannel(transport.LabelFrames, &webrtc.DataChannelInit{
		Ordered:        &framesOrdered,
		MaxRetransmits: &framesMaxRetransmits,
	})
	if err != nil {
		pc.Close()
		return nil, err
	}

	lutOrdered := true
	lutDC, err := pc.CreateDataChannel(transport.LabelLUT, &webrtc.DataChannelInit{
		Ordered: &lutOrdered,
	})
	if err != nil {
		pc.Close()
		return nil, err
	}
	lutDC.OnOpen(func() {
		s.log.Info("lut data channel open")
		if s.onReady != nil {
			s.onReady()
		}
	})

	s.transport = transport.NewDataChannelTransport(framesDC, lutDC)

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil || s.viewerID == "" {
			return
		}
		data, err := json.Marshal(c.ToJSON())
		if err != nil {
			s.log.Warnf("marshal ICE candidate: %v", err)
			return
		}
		_ = sig.SendICECandidate(s.viewerID, data)
	})

	return s, nil
}

// Transport returns the DataChannelTransport for sending frames and luts.
func (s *Sender) Transport() *transport.DataChannelTransport {
	return s.transport
}

// OnReady registers cb to run once the lut channel is open.
func (s *Sender) OnReady(cb func()) {
	s.onReady = cb
}

// HandleOffer processes an incoming offer from a viewer.
func (s *Sender) HandleOffer(from string, payload json.RawMessage) error {
	s.viewerID = from

	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		return err
	}

	if err := s.pc.SetRemoteDescription(offer); err != nil {
		return err
	}
	if err := s.remote.flush(s.pc); err != nil {
		s.log.Warnf("add queued ICE candidate: %v", err)
	}

	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		return err
	}

	if err := s.pc.SetLocalDescription(answer); err != nil {
		return err
	}

	answerJSON, err := json.Marshal(answer)
	if err != nil {
		return err
	}

	return s.sig.SendAnswer(from, answerJSON)
}

// HandleICECandidate adds a remote ICE candidate.
func (s *Sender) HandleICECandidate(payload json.RawMessage) error {
	return s.remote.add(s.pc, payload)
}

// Close shuts down the peer connection.
func (s *Sender) Close() {
	if s.pc != nil {
		s.pc.Close()
	}
}
