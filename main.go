package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

const appName = "expedition"

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	clientDir := flag.String("client", "", "Path to client directory (default: ../client)")
	dbPath := flag.String("db", "expedition.db", "SQLite database path, empty to disable accounts")
	tuningPath := flag.String("tuning", "", "YAML tuning file (default: built-in tuning)")
	simulate := flag.Bool("simulate", false, "Play an offline run and log the difficulty curve instead of serving")
	simSeconds := flag.Float64("simulate-seconds", 1200, "Simulated run length in seconds")
	simPlayers := flag.Int("simulate-players", 1, "Party size the simulated difficulty scales for")
	seed := flag.Uint64("seed", 0, "Random seed for the simulation (0 = time based)")
	flag.Parse()

	tuning := DefaultTuning()
	if *tuningPath != "" {
		t, err := LoadTuning(*tuningPath)
		if err != nil {
			log.Fatalf("tuning: %v", err)
		}
		tuning = t
		log.Printf("Loaded tuning from %s", *tuningPath)
	}

	if *simulate {
		s := *seed
		if s == 0 {
			s = uint64(time.Now().UnixNano())
		}
		SimulateRun(tuning, *simSeconds, *simPlayers, OpenLocalWallet(appName), s)
		return
	}

	if *clientDir == "" {
		exe, _ := os.Executable()
		*clientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		// Fallback for development
		if _, err := os.Stat(*clientDir); os.IsNotExist(err) {
			*clientDir = "../client"
		}
	}

	var db *DB
	if *dbPath != "" {
		var err error
		db, err = OpenDB(*dbPath)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
	}
	var analytics *Analytics
	if db != nil {
		analytics = NewAnalytics(db)
	}

	hub := NewHub(db, analytics, tuning)
	go hub.Run()

	janitorStop := make(chan struct{})
	go hub.sessions.RunJanitor(time.Minute, janitorStop)

	mux := SetupRoutes(hub, *clientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", *addr)
		log.Printf("Serving client files from %s", *clientDir)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	close(janitorStop)
	server.Close()
	analytics.Stop()
}
