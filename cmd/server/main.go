package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/manpreetbhatti/paintcoop/internal/brush"
	"github.com/manpreetbhatti/paintcoop/internal/config"
	"github.com/manpreetbhatti/paintcoop/internal/discovery"
	"github.com/manpreetbhatti/paintcoop/internal/persistence"
	"github.com/manpreetbhatti/paintcoop/internal/registry"
	"github.com/manpreetbhatti/paintcoop/internal/room"
	"github.com/manpreetbhatti/paintcoop/internal/transport"
)

const documentFilename = "paintcoop.doc.json"
const auditFilename = "paintcoop.audit.db"

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("failed to create data dir %s: %v", cfg.DataDir, err)
	}
	docPath := filepath.Join(cfg.DataDir, documentFilename)
	auditPath := filepath.Join(cfg.DataDir, auditFilename)

	reg := registry.New(cfg.Width, cfg.Height, brush.NewCatalog())
	if err := persistence.Load(docPath, reg); err != nil {
		log.Fatalf("failed to load persistence document: %v", err)
	}

	audit, err := persistence.OpenAuditStore(auditPath)
	if err != nil {
		log.Fatalf("failed to open audit store: %v", err)
	}
	defer audit.Close()

	saveLoop := persistence.NewLoop(docPath, reg, audit)
	stopSave := make(chan struct{})
	go saveLoop.Run(stopSave)

	retention := persistence.NewRetentionService(audit, persistence.DefaultRetentionConfig())
	retention.Start()

	srv := transport.New(reg, cfg.TCPPort, audit, saveLoop.Trigger)

	var advertiser *discovery.Advertiser
	if cfg.MDNS {
		advertiser, err = discovery.Advertise(cfg.TCPPort, cfg.Width, cfg.Height)
		if err != nil {
			log.Printf("⚠️ mDNS advertisement failed, continuing without it: %v", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("shutting down paintcoop server...")
		close(stopSave)
		retention.Stop()
		if err := persistence.Save(docPath, reg); err != nil {
			log.Printf("⚠️ final save failed: %v", err)
		}
		if advertiser != nil {
			advertiser.Shutdown()
		}
		audit.Close()
		os.Exit(0)
	}()

	log.Printf("🌸 paintcoop server starting")
	log.Printf("📁 data dir: %s (document: %s)", cfg.DataDir, documentFilename)
	log.Printf("🖼️ canvas size: %dx%d", cfg.Width, cfg.Height)
	log.Printf("🔌 TCP: %d | UDP: %d+ | Layers: %d", cfg.TCPPort, cfg.TCPPort, room.MaxLayers)

	addr := fmt.Sprintf(":%d", cfg.TCPPort)
	if err := srv.ListenAndServeTCP(addr); err != nil {
		log.Fatalf("acceptor stopped: %v", err)
	}
}
