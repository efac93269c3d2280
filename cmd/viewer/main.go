package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/junsooki/lutview/internal/config"
	"github.com/junsooki/lutview/internal/decoder"
	"github.com/junsooki/lutview/internal/display"
	internallog "github.com/junsooki/lutview/internal/logging"
	"github.com/junsooki/lutview/internal/lut"
	"github.com/junsooki/lutview/internal/peer"
	"github.com/junsooki/lutview/internal/render"
	"github.com/junsooki/lutview/internal/signaling"
	"github.com/junsooki/lutview/internal/uploader"
)

// Snapshots larger than this are scaled down.
const snapshotMaxW, snapshotMaxH = 1920, 1080

func main() {
	cfg, err := config.ParseViewerFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\nUsage: lutview-viewer -signaling <url> [-sender <sender-id>] [-lut film.cube]\n", err)
		os.Exit(2)
	}
	internallog.SetDebug(cfg.Debug)
	log := internallog.NewLogger("viewer")

	log.Info("lutview viewer starting")
	log.Infof("  Viewer ID:  %s", cfg.ViewerID)
	log.Infof("  Signaling:  %s", cfg.SignalingURL)
	if cfg.SenderID != "" {
		log.Infof("  Sender:     %s", cfg.SenderID)
	} else {
		log.Info("  Sender:     first online")
	}
	log.Infof("  LUT size:   %d", cfg.LUTDimension)

	fs := afero.NewOsFs()
	dec := decoder.NewRawDecoder()

	disp := display.NewEbitenDisplay(display.Options{
		Title:        "lutview",
		Width:        cfg.WindowWidth,
		Height:       cfg.WindowHeight,
		LUTDimension: cfg.LUTDimension,
	})

	if cfg.LUTPath != "" {
		table, err := lut.Load(fs, cfg.LUTPath)
		if err != nil {
			log.Errorf("load lut: %v", err)
			os.Exit(1)
		}
		if table, err = table.Resample(cfg.LUTDimension); err != nil {
			log.Errorf("resample lut: %v", err)
			os.Exit(1)
		}
		disp.SetLUT(table.Data)
		log.Infof("Applied local LUT %s", cfg.LUTPath)
	}

	if cfg.SnapshotPath != "" {
		disp.OnFirstFrame(func(u *uploader.Uploader) {
			img, err := render.ConvertUploaded(u)
			if err != nil {
				log.Errorf("snapshot: %v", err)
				return
			}
			// Encoding is slow; keep it off the render goroutine.
			go func() {
				f, err := fs.Create(cfg.SnapshotPath)
				if err != nil {
					log.Errorf("snapshot: %v", err)
					return
				}
				defer f.Close()
				if err := render.Snapshot(f, img, snapshotMaxW, snapshotMaxH); err != nil {
					log.Errorf("snapshot: %v", err)
					return
				}
				log.Infof("Wrote snapshot %s", cfg.SnapshotPath)
			}()
		})
	}

	var conn connection[*peer.Viewer]
	current := func() *peer.Viewer {
		p, _ := conn.get()
		return p
	}

	var sig *signaling.Client

	connect := func(senderID string) {
		p, opened, err := conn.open(senderID, func() (*peer.Viewer, error) {
			p, err := peer.NewViewer(sig, senderID, cfg.ICEServers)
			if err != nil {
				return nil, err
			}
			t := p.Transport()
			t.OnFrame(func(data []byte) {
				f, err := dec.Decode(data)
				if err != nil {
					log.Debugf("decode frame: %v", err)
					return
				}
				disp.SetFrame(f)
			})
			t.OnLUT(func(data []byte) {
				table, err := dec.DecodeLUT(data)
				if err != nil {
					log.Warnf("decode lut: %v", err)
					return
				}
				log.Infof("Received %d^3 LUT from sender", table.Dimension)
				disp.SetLUT(table.Data)
			})
			return p, nil
		})
		if err != nil {
			log.Errorf("create viewer peer: %v", err)
			disp.Close()
			return
		}
		if !opened {
			return
		}
		log.Infof("Connecting to sender %s", senderID)
		if err := p.Connect(); err != nil {
			log.Errorf("viewer connect: %v", err)
		}
	}

	sig = signaling.NewClient(cfg.SignalingURL, cfg.ViewerID, signaling.ClientTypeViewer, signaling.Handler{
		OnRegistered: func() {
			log.Info("Registered with signaling server")
			if cfg.SenderID != "" {
				connect(cfg.SenderID)
				return
			}
			if err := sig.RequestSenderList(); err != nil {
				log.Errorf("request sender list: %v", err)
			}
		},
		OnSendersUpdated: func(senders []signaling.SenderInfo) {
			if cfg.SenderID != "" || current() != nil {
				return
			}
			id, ok := signaling.FirstOnline(senders)
			if !ok {
				log.Info("No sender online yet, waiting")
				return
			}
			connect(id)
		},
		OnAnswer: func(from string, payload json.RawMessage) {
			if p := current(); p != nil {
				if err := p.HandleAnswer(payload); err != nil {
					log.Errorf("handle answer: %v", err)
				}
			}
		},
		OnICECandidate: func(from string, payload json.RawMessage) {
			if p := current(); p != nil {
				if err := p.HandleICECandidate(payload); err != nil {
					log.Errorf("handle ICE candidate: %v", err)
				}
			}
		},
		OnSenderDisconnected: func(senderID string) {
			if conn.isTarget(senderID) {
				log.Warnf("Sender %s disconnected", senderID)
			}
		},
		OnError: func(msg string) {
			log.Errorf("signaling error: %s", msg)
		},
	})

	if err := sig.Connect(); err != nil {
		log.Errorf("signaling connect: %v", err)
		os.Exit(1)
	}
	defer sig.Close()

	// Ebitengine RunGame must be on the main goroutine (macOS requirement).
	if err := disp.Run(); err != nil {
		log.Errorf("display: %v", err)
	}

	st := disp.Stats()
	var transportDropped uint64
	if p := current(); p != nil {
		transportDropped = p.Transport().DroppedFrames()
		p.Close()
	}
	log.Infof("frames received=%d uploaded=%d dropped=%d failed=%d transport-dropped=%d luts-rejected=%d",
		st.Received, st.Uploaded, st.Dropped, st.Failed, transportDropped, st.LUTFailed)
}
