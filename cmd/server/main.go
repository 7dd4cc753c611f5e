package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"shieldai.dev/ragshield/internal/api"
	"shieldai.dev/ragshield/internal/config"
	"shieldai.dev/ragshield/internal/core"
	"shieldai.dev/ragshield/internal/feeds"
	"shieldai.dev/ragshield/internal/ingest"
	"shieldai.dev/ragshield/internal/store"
	"shieldai.dev/ragshield/internal/vectorstore/qdrant"
)

func main() {
	// Load configuration
	config.LoadConfig()
	cfg := config.AppConfig

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if cfg.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line flag for a one-shot aggregate-and-sync run
	syncFlag := flag.Bool("sync", false, "Aggregate feed output and sync the vector index, then exit")
	flag.Parse()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Initialize LLM service
	llmService := core.NewLLMService()
	defer llmService.Close()

	// Initialize vector index; dimension mismatch is fatal at startup.
	index := qdrant.New(qdrant.Config{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
	})
	if err := index.EnsureCollection(context.Background(), cfg.EmbeddingDim); err != nil {
		log.Fatalf("Vector index configuration error: %v", err)
	}

	// Ledger backend for the sync engine
	var ledger ingest.Ledger
	if cfg.LedgerBackend == "file" {
		ledger = ingest.NewFileLedger(filepath.Join(cfg.DataDir, cfg.LedgerFile))
	} else {
		ledger = dbStore.Ledger()
	}

	syncer := ingest.NewSyncer(llmService, index, ledger)
	corpusFile := filepath.Join(cfg.DataDir, cfg.CorpusFile)

	runSync := func() {
		total, err := ingest.Aggregate(cfg.DataDir, corpusFile)
		if err != nil {
			log.Printf("Aggregation failed: %v", err)
			return
		}
		log.Printf("Aggregated %d documents into %s", total, corpusFile)

		count, err := syncer.Sync(context.Background(), corpusFile)
		if err != nil {
			log.Printf("Sync failed: %v", err)
			return
		}
		log.Printf("Sync complete: %d new records indexed", count)
	}

	if *syncFlag {
		log.Println("Starting one-shot aggregate and sync...")
		runSync()
		os.Exit(0)
	}

	// Feed collection scheduler
	var scheduler *feeds.Scheduler
	if cfg.EnableCollectors {
		scheduler = feeds.NewScheduler(
			time.Duration(cfg.FetchIntervalHrs)*time.Hour,
			time.Duration(cfg.FetchTimeoutSecs)*time.Second,
		)
		scheduler.AddAdapter(feeds.NewURLhausAdapter(filepath.Join(cfg.DataDir, "urlhaus_threats.json")))
		scheduler.AddAdapter(feeds.NewIBMSecurityAdapter(filepath.Join(cfg.DataDir, "ibm_security_blog.json")))
		if cfg.AbuseIPDBAPIKey != "" {
			scheduler.AddAdapter(feeds.NewAbuseIPDBAdapter(cfg.AbuseIPDBAPIKey, filepath.Join(cfg.DataDir, "abuseipdb_threats.json")))
		} else {
			log.Println("ABUSEIPDB_API_KEY not set, skipping AbuseIPDB collector")
		}
		if cfg.OTXAPIKey != "" {
			scheduler.AddAdapter(feeds.NewOTXAdapter(cfg.OTXAPIKey, filepath.Join(cfg.DataDir, "otx_threat_intelligence.json")))
		} else {
			log.Println("OTX_API_KEY not set, skipping OTX collector")
		}
		scheduler.AddJob("aggregate-and-sync", runSync)
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Retrieval and answer pipeline
	retriever := core.NewRetriever(llmService, index, cfg.RetrievalTopK)
	answerService := core.NewAnswerService(retriever, llmService)
	chatService := core.NewChatService(dbStore, answerService, llmService)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(chatService)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
