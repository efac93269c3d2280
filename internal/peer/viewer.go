package peer

import (
	"encoding/json"

	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"

	internallog "github.com/junsooki/lutview/internal/logging"
	"github.com/junsooki/lutview/internal/transport"
)

// Viewer manages the displaying side of the WebRTC connection.
type Viewer struct {
	pc        *webrtc.PeerConnection
	sig       Signaler
	transport *transport.DataChannelTransport
	senderID  string
	remote    candidateQueue
	log       logging.LeveledLogger
}

// NewViewer creates a Viewer peer manager targeting senderID.
func NewViewer(sig Signaler, senderID string, iceURLs []string) (*Viewer, error) {
	pc, err := NewPeerConnection(iceURLs)
	if err != nil {
		return nil, err
	}

	v := &Viewer{
		pc:        pc,
		sig:       sig,
		transport: transport.NewDataChannelTransport(nil, nil),
		senderID:  senderID,
		log:       internallog.NewLogger("viewer"),
	}

	// Accept data channels from the sender.
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		label := dc.Label()
		v.log.Infof("data channel received: %s", label)
		switch label {
		case transport.LabelFrames:
			v.transport.SetFramesChannel(dc)
		case transport.LabelLUT:
			v.transport.SetLUTChannel(dc)
		default:
			v.log.Warnf("ignoring unknown data channel %q", label)
			return
		}
		dc.OnOpen(func() {
			v.log.Infof("%s data channel open", label)
		})
	})

	// A viewer has no data channels of its own to offer, so the offer must
	// request an SCTP association explicitly.
	if _, err := pc.CreateDataChannel("control", nil); err != nil {
		pc.Close()
		return nil, err
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		data, err := json.Marshal(c.ToJSON())
		if err != nil {
			v.log.Warnf("marshal ICE candidate: %v", err)
			return
		}
		_ = sig.SendICECandidate(senderID, data)
	})

	return v, nil
}

// Transport returns the DataChannelTransport.
func (v *Viewer) Transport() *transport.DataChannelTransport {
	return v.transport
}

// Connect initiates the WebRTC connection by creating and sending an offer.
func (v *Viewer) Connect() error {
	offer, err := v.pc.CreateOffer(nil)
	if err != nil {
		return err
	}

	if err := v.pc.SetLocalDescription(offer); err != nil {
		return err
	}

	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return err
	}

	return v.sig.SendOffer(v.senderID, offerJSON)
}

// HandleAnswer processes an incoming SDP answer.
func (v *Viewer) HandleAnswer(payload json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &answer); err != nil {
		return err
	}
	if err := v.pc.SetRemoteDescription(answer); err != nil {
		return err
	}
	return v.remote.flush(v.pc)
}

// HandleICECandidate adds a remote ICE candidate.
func (v *Viewer) HandleICECandidate(payload json.RawMessage) error {
	return v.remote.add(v.pc, payload)
}

// Close shuts down the peer connection.
func (v *Viewer) Close() {
	if v.pc != nil {
		v.pc.Close()
	}
}
