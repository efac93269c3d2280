// Package config loads runtime configuration for the sender and viewer
// binaries from an optional JSON file and command-line flags.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/dealancer/validate.v2"

	"github.com/junsooki/lutview/internal/frame"
	"github.com/junsooki/lutview/internal/lut"
)

// EnvConfigPath names the environment variable holding a config file path
// used when no -config flag is given.
const EnvConfigPath = "LUTVIEW_CONFIG"

// DefaultSignalingURL is the signaling server used when none is configured.
const DefaultSignalingURL = "ws://localhost:8080"

// ViewerConfig holds configuration for the viewer binary.
type ViewerConfig struct {
	SignalingURL string     `json:"signaling" validate:"empty=false"`
	ViewerID     string     `json:"id" validate:"empty=false"`
	SenderID     string     `json:"sender"`
	LUTPath      string     `json:"lut"`
	LUTDimension int        `json:"lut_dimension" validate:"gte=2 & lte=64"`
	SnapshotPath string     `json:"snapshot"`
	WindowWidth  int        `json:"window_width" validate:"gte=1"`
	WindowHeight int        `json:"window_height" validate:"gte=1"`
	Debug        bool       `json:"debug"`
	ICEServers   StringList `json:"ice_servers"`
}

// SenderConfig holds configuration for the sender binary.
type SenderConfig struct {
	SignalingURL string       `json:"signaling" validate:"empty=false"`
	SenderID     string       `json:"id" validate:"empty=false"`
	Input        string       `json:"input" validate:"empty=false"`
	Format       frame.Format `json:"format" validate:"one_of=I420,I444,NV12,NV21"`
	Width        int          `json:"width" validate:"gte=1 & lte=65535"`
	Height       int          `json:"height" validate:"gte=1 & lte=65535"`
	FPS          int          `json:"fps" validate:"gte=1 & lte=240"`
	Loop         bool         `json:"loop"`
	LUTPath      string       `json:"lut"`
	LUTDimension int          `json:"lut_dimension" validate:"gte=2 & lte=64"`
	Debug        bool         `json:"debug"`
	ICEServers   StringList   `json:"ice_servers"`
}

// StringList is a flag value holding comma separated strings.
type StringList []string

func (l *StringList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

// Set replaces the list with the comma separated entries of v.
func (l *StringList) Set(v string) error {
	*l = nil
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*l = append(*l, s)
		}
	}
	return nil
}

// Loader reads config files and environment for the Parse functions.
type Loader struct {
	fs     afero.Fs
	getenv func(string) string
	v      func(interface{}) error
}

// NewLoader returns a Loader reading files from fs and variables via getenv.
func NewLoader(fs afero.Fs, getenv func(string) string) *Loader {
	return &Loader{fs: fs, getenv: getenv, v: validate.Validate}
}

var defaultLoader = NewLoader(afero.NewOsFs(), os.Getenv)

// ParseViewerFlags parses args (without the program name) for the viewer binary.
func ParseViewerFlags(args []string) (*ViewerConfig, error) {
	return defaultLoader.ParseViewerFlags(args)
}

// ParseSenderFlags parses args (without the program name) for the sender binary.
func ParseSenderFlags(args []string) (*SenderConfig, error) {
	return defaultLoader.ParseSenderFlags(args)
}

// ParseViewerFlags loads the config file, if any, then applies args over it.
func (l *Loader) ParseViewerFlags(args []string) (*ViewerConfig, error) {
	cfg := &ViewerConfig{
		SignalingURL: DefaultSignalingURL,
		LUTDimension: lut.DefaultDimension,
		WindowWidth:  1280,
		WindowHeight: 720,
	}
	if err := l.loadFile(args, cfg); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("viewer", flag.ContinueOnError)
	fs.String("config", "", "JSON config file (or $"+EnvConfigPath+")")
	fs.StringVar(&cfg.SignalingURL, "signaling", cfg.SignalingURL, "Signaling server WebSocket URL")
	fs.StringVar(&cfg.ViewerID, "id", cfg.ViewerID, "Viewer ID (auto-generated if empty)")
	fs.StringVar(&cfg.SenderID, "sender", cfg.SenderID, "Sender ID to connect to (first online sender if empty)")
	fs.StringVar(&cfg.LUTPath, "lut", cfg.LUTPath, "Local .cube LUT applied at startup")
	fs.IntVar(&cfg.LUTDimension, "lut-size", cfg.LUTDimension, "LUT lattice size expected by the shader (2-64)")
	fs.StringVar(&cfg.SnapshotPath, "snapshot", cfg.SnapshotPath, "Write a PNG of the first received frame to this path")
	fs.IntVar(&cfg.WindowWidth, "width", cfg.WindowWidth, "Initial window width")
	fs.IntVar(&cfg.WindowHeight, "height", cfg.WindowHeight, "Initial window height")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	fs.Var(&cfg.ICEServers, "ice", "Comma separated STUN/TURN server URLs")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.ViewerID == "" {
		cfg.ViewerID = fmt.Sprintf("viewer-%s", uuid.NewString())
	}
	if err := l.v(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid viewer configuration")
	}
	return cfg, nil
}

// ParseSenderFlags loads the config file, if any, then applies args over it.
func (l *Loader) ParseSenderFlags(args []string) (*SenderConfig, error) {
	cfg := &SenderConfig{
		SignalingURL: DefaultSignalingURL,
		Format:       frame.FormatI420,
		FPS:          30,
		Loop:         true,
		LUTDimension: lut.DefaultDimension,
	}
	if err := l.loadFile(args, cfg); err != nil {
		return nil, err
	}

	format := string(cfg.Format)
	fs := flag.NewFlagSet("sender", flag.ContinueOnError)
	fs.String("config", "", "JSON config file (or $"+EnvConfigPath+")")
	fs.StringVar(&cfg.SignalingURL, "signaling", cfg.SignalingURL, "Signaling server WebSocket URL")
	fs.StringVar(&cfg.SenderID, "id", cfg.SenderID, "Sender ID (auto-generated if empty)")
	fs.StringVar(&cfg.Input, "input", cfg.Input, "Raw YUV file to stream (required)")
	fs.StringVar(&format, "format", format, "Pixel layout of the input: I420, I444, NV12 or NV21")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Frame width in pixels")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Frame height in pixels")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "Target frames per second")
	fs.BoolVar(&cfg.Loop, "loop", cfg.Loop, "Restart the input at end of file")
	fs.StringVar(&cfg.LUTPath, "lut", cfg.LUTPath, ".cube LUT sent to viewers on connect")
	fs.IntVar(&cfg.LUTDimension, "lut-size", cfg.LUTDimension, "LUT lattice size expected by viewers (2-64)")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	fs.Var(&cfg.ICEServers, "ice", "Comma separated STUN/TURN server URLs")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Format = frame.Format(strings.ToUpper(format))

	if cfg.SenderID == "" {
		cfg.SenderID = fmt.Sprintf("sender-%s", uuid.NewString())
	}
	if err := l.v(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid sender configuration")
	}
	return cfg, nil
}

// loadFile decodes the config file named by -config in args, or by the
// environment, into cfg. No file is not an error.
func (l *Loader) loadFile(args []string, cfg interface{}) error {
	path := configPath(args)
	if path == "" {
		path = l.getenv(EnvConfigPath)
	}
	if path == "" {
		return nil
	}

	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("Unable to read from path %s", path))
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return errors.Wrap(err, "Parsing configuration file error")
	}
	return nil
}

// configPath finds the value of -config or --config in args without
// parsing the remaining flags.
func configPath(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			return ""
		}
		name := strings.TrimLeft(a, "-")
		if len(a)-len(name) < 1 || len(a)-len(name) > 2 {
			continue
		}
		if name == "config" {
			if i+1 < len(args) {
				return args[i+1]
			}
			return ""
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
	}
	return ""
}
