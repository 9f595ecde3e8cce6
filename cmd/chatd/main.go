// cmd/chatd/main.go
// Main entry point for the chat session daemon
// This file bootstraps all components and starts the local API server

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Internal packages
	"github.com/Goutam96801/whoami/internal/api"
	"github.com/Goutam96801/whoami/internal/chat"
	"github.com/Goutam96801/whoami/internal/common/utils"
	"github.com/Goutam96801/whoami/internal/config"
	"github.com/Goutam96801/whoami/internal/matchmaking"
	"github.com/Goutam96801/whoami/internal/notify"
	"github.com/Goutam96801/whoami/internal/session"
	"github.com/Goutam96801/whoami/internal/storage"
	"github.com/Goutam96801/whoami/internal/transport"
)

func main() {
	// Enable detailed logging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	log.Println("========================================")
	log.Println("🚀 Starting whoami chat session daemon")
	log.Println("========================================")

	// 1. Load environment variables
	log.Println("📁 Step 1: Loading .env file...")
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: No .env file found (%v), using environment variables", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// 2. Load configuration
	log.Println("\n📋 Step 2: Loading configuration...")
	cfg := config.Load()
	log.Printf("✅ Configuration loaded")

	// 3. Validate configuration
	log.Println("\n✔️  Step 3: Validating configuration...")
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Configuration validation failed:", err)
	}
	log.Println("✅ Configuration is valid")

	// 4. Open local storage
	log.Println("\n🗄️  Step 4: Opening local storage...")
	store := storage.NewStore(cfg.DataDir)
	defer store.Close()
	log.Printf("✅ Local storage rooted at %s", cfg.DataDir)

	// 5. Resolve session identity
	log.Println("\n🔐 Step 5: Resolving session identity...")
	token := os.Getenv("SESSION_TOKEN")
	if token == "" {
		log.Fatal("❌ SESSION_TOKEN is required")
	}
	sess, err := session.FromToken(token, cfg.JWTSecret)
	if err != nil {
		log.Fatal("❌ Failed to resolve session: ", err)
	}
	log.Printf("✅ Session resolved for user %s", sess.UserID)

	// 6. Initialize notification dispatcher
	log.Println("\n🔔 Step 6: Initializing notifications...")
	dispatcher := notify.NewLocalDispatcher(store, sess.UserID, cfg.NotificationLogCap, nil)
	log.Println("✅ Notification dispatcher ready")

	// 7. Initialize backend API client
	log.Println("\n🌐 Step 7: Initializing backend API client...")
	backend := api.NewClient(cfg.APIBaseURL, token)
	log.Printf("✅ Backend client pointed at %s", cfg.APIBaseURL)

	// 8. Start the chat engine
	log.Println("\n💬 Step 8: Starting chat engine...")
	dial := func(ctx context.Context, userID string, h chat.SocketHandlers) (chat.Socket, error) {
		client := transport.NewClient(cfg.SocketURL, userID, cfg.MaxMessageSize, cfg.SocketTimeout, transport.Handlers{
			OnMessage:     h.OnMessage,
			OnOnlineUsers: h.OnOnlineUsers,
			OnTyping:      h.OnTyping,
			OnDisconnect:  h.OnDisconnect,
		})
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		return client, nil
	}

	engine := chat.NewService(chat.Deps{
		Durable:       store,
		Backend:       backend,
		Dial:          dial,
		Dispatcher:    dispatcher,
		PreviewLength: cfg.MessagePreviewLength,
		TypingIdle:    cfg.TypingIdleTimeout,
	})

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	if err := engine.Start(startCtx, sess); err != nil {
		cancelStart()
		log.Fatal("❌ Failed to start chat engine: ", err)
	}
	cancelStart()
	log.Println("✅ Chat engine running")

	// 9. Initialize matchmaking queue
	log.Println("\n🎲 Step 9: Initializing matchmaking queue...")
	queue := matchmaking.NewQueue(backend, dispatcher, sess.UserID, cfg.MinAge, cfg.MaxAge, cfg.RevealInterval)
	log.Println("✅ Matchmaking queue ready")

	// 10. Set up routes
	log.Println("\n🛣️  Step 10: Setting up routes...")
	router := mux.NewRouter()

	chat.RegisterRoutes(router, chat.NewHandler(engine))
	matchmaking.RegisterRoutes(router, matchmaking.NewHandler(queue))
	notify.RegisterRoutes(router, notify.NewHandler(dispatcher))

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"userId": sess.UserID,
		})
	}).Methods("GET")
	log.Println("✅ Routes registered")

	// 11. Start the server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("\n🌍 Local API listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Server failed: ", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n⚠️  Shutdown signal received...")

	// Drain in-flight requests before the engine and queue go away so no
	// handler observes a half-torn-down service.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
	}

	queue.Stop()
	engine.Stop()

	log.Println("✅ Daemon exited gracefully")
}
