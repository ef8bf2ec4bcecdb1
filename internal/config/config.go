// Package config resolves server settings from flags and environment
// variables, flags taking precedence (SPEC_FULL.md's CLI/environment
// section).
package config

import (
	"flag"
	"os"
	"strconv"
)

// Config holds every knob the server accepts.
type Config struct {
	DataDir string
	TCPPort int
	Width   int
	Height  int
	MDNS    bool
}

// Default values mirror spec §6.5/§6.6: a single process-wide canvas
// size, the fixed reliable port P_C, and a document in the working
// directory.
const (
	DefaultTCPPort = 6769
	DefaultWidth   = 1280
	DefaultHeight  = 720
)

// Parse builds a Config from args (typically os.Args[1:]) layered over
// environment variables, which are layered over the spec's defaults.
func Parse(args []string) (*Config, error) {
	cfg := &Config{
		DataDir: envOr("PAINTCOOP_DATA_DIR", "."),
		TCPPort: envIntOr("PAINTCOOP_TCP_PORT", DefaultTCPPort),
		Width:   envIntOr("PAINTCOOP_WIDTH", DefaultWidth),
		Height:  envIntOr("PAINTCOOP_HEIGHT", DefaultHeight),
	}

	fs := flag.NewFlagSet("paintcoop-server", flag.ContinueOnError)
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for the persistence document and audit database")
	fs.IntVar(&cfg.TCPPort, "tcp-port", cfg.TCPPort, "reliable channel port (P_C)")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "canvas width in pixels, shared by every room")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "canvas height in pixels, shared by every room")
	fs.BoolVar(&cfg.MDNS, "mdns", true, "advertise this server on the local network via mDNS")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
