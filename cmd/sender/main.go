package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pion/logging"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/junsooki/lutview/internal/config"
	"github.com/junsooki/lutview/internal/encoder"
	internallog "github.com/junsooki/lutview/internal/logging"
	"github.com/junsooki/lutview/internal/lut"
	"github.com/junsooki/lutview/internal/peer"
	"github.com/junsooki/lutview/internal/signaling"
	"github.com/junsooki/lutview/internal/source"
	"github.com/junsooki/lutview/internal/transport"
)

func main() {
	cfg, err := config.ParseSenderFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\nUsage: lutview-sender -input clip.yuv -width <w> -height <h> [-format I420] [-lut film.cube]\n", err)
		os.Exit(2)
	}
	internallog.SetDebug(cfg.Debug)
	log := internallog.NewLogger("sender")

	log.Info("lutview sender starting")
	log.Infof("  Sender ID:  %s", cfg.SenderID)
	log.Infof("  Signaling:  %s", cfg.SignalingURL)
	log.Infof("  Input:      %s (%s %dx%d)", cfg.Input, cfg.Format, cfg.Width, cfg.Height)
	log.Infof("  FPS:        %d", cfg.FPS)
	log.Infof("  Loop:       %t", cfg.Loop)

	fs := afero.NewOsFs()
	enc := encoder.NewRawEncoder()

	src, err := source.NewFileSource(fs, cfg.Input, source.Options{
		Format: cfg.Format,
		Width:  cfg.Width,
		Height: cfg.Height,
		FPS:    cfg.FPS,
		Loop:   cfg.Loop,
	})
	if err != nil {
		log.Errorf("source init: %v", err)
		os.Exit(1)
	}

	var lutMsg []byte
	if cfg.LUTPath != "" {
		if lutMsg, err = loadLUT(fs, enc, cfg.LUTPath, cfg.LUTDimension); err != nil {
			log.Errorf("lut: %v", err)
			os.Exit(1)
		}
		log.Infof("  LUT:        %s (%d^3)", cfg.LUTPath, cfg.LUTDimension)
	}

	// Frames go to whichever viewer connected last.
	var (
		mu         sync.Mutex
		senderPeer *peer.Sender
	)
	current := func() *peer.Sender {
		mu.Lock()
		defer mu.Unlock()
		return senderPeer
	}

	var sig *signaling.Client
	sig = signaling.NewClient(cfg.SignalingURL, cfg.SenderID, signaling.ClientTypeSender, signaling.Handler{
		OnRegistered: func() {
			log.Info("Registered with signaling server")
		},
		OnOffer: func(from string, payload json.RawMessage) {
			log.Infof("Received offer from %s", from)
			p, err := peer.NewSender(sig, cfg.ICEServers)
			if err != nil {
				log.Errorf("create sender peer: %v", err)
				return
			}
			if lutMsg != nil {
				p.OnReady(func() {
					if err := p.Transport().SendLUT(lutMsg); err != nil {
						log.Errorf("send lut: %v", err)
					}
				})
			}
			if err := p.HandleOffer(from, payload); err != nil {
				log.Errorf("handle offer: %v", err)
				p.Close()
				return
			}

			mu.Lock()
			old := senderPeer
			senderPeer = p
			mu.Unlock()
			if old != nil {
				old.Close()
			}
		},
		OnICECandidate: func(from string, payload json.RawMessage) {
			if p := current(); p != nil {
				if err := p.HandleICECandidate(payload); err != nil {
					log.Errorf("handle ICE candidate: %v", err)
				}
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := src.Start(ctx); err != nil {
		log.Errorf("source start: %v", err)
		os.Exit(1)
	}
	defer src.Stop()

	log.Infof("Sender ready. Share this ID with viewers: %s", cfg.SenderID)

	sent, dropped := streamFrames(src.Frames(), enc, func() *transport.DataChannelTransport {
		if p := current(); p != nil {
			return p.Transport()
		}
		return nil
	}, log)

	log.Info("Shutting down...")
	log.Infof("frames sent=%d backpressure-dropped=%d source-dropped=%d", sent, dropped, src.Dropped())
	if p := current(); p != nil {
		p.Close()
	}
}

// loadLUT reads a .cube file and encodes it at the lattice size viewers expect.
func loadLUT(fs afero.Fs, enc encoder.LUTEncoder, path string, dim int) ([]byte, error) {
	table, err := lut.Load(fs, path)
	if err != nil {
		return nil, err
	}
	if table, err = table.Resample(dim); err != nil {
		return nil, err
	}
	return enc.EncodeLUT(table)
}

// streamFrames encodes and sends frames until the source closes. Frames are
// discarded while no viewer is connected or the channel is backed up.
func streamFrames(frames <-chan *source.Frame, enc encoder.Encoder, out func() *transport.DataChannelTransport, log logging.LeveledLogger) (sent, dropped uint64) {
	for f := range frames {
		t := out()
		if t == nil {
			continue
		}
		data, err := enc.Encode(f.Frame)
		if err != nil {
			log.Errorf("encode frame %d: %v", f.Seq, err)
			continue
		}
		if err := t.SendFrame(data); err != nil {
			if errors.Is(err, transport.ErrBackpressure) {
				dropped++
			} else {
				log.Debugf("send frame %d: %v", f.Seq, err)
			}
			continue
		}
		sent++
	}
	return sent, dropped
}
