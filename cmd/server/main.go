// File: cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/greyhelm/ttrpg-buddy/internal/config"
	"github.com/greyhelm/ttrpg-buddy/internal/domain"
	"github.com/greyhelm/ttrpg-buddy/internal/handlers"
	"github.com/greyhelm/ttrpg-buddy/internal/middleware"
	convrepo "github.com/greyhelm/ttrpg-buddy/internal/repository/conversation"
	userrepo "github.com/greyhelm/ttrpg-buddy/internal/repository/user"
	"github.com/greyhelm/ttrpg-buddy/internal/services"
	"github.com/greyhelm/ttrpg-buddy/internal/services/assistant"
	"github.com/greyhelm/ttrpg-buddy/internal/services/files"
	"github.com/greyhelm/ttrpg-buddy/internal/services/imagegen"
	"github.com/greyhelm/ttrpg-buddy/internal/services/npc"
	"github.com/greyhelm/ttrpg-buddy/internal/services/session"
)

func main() {
	cfg := config.Load()

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Conversation{}); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}

	// --- Repositories ---
	userRepo := userrepo.NewGormUserRepository(db)
	conversationRepo := convrepo.NewConversationRepository(db)

	// --- Services ---
	assistantConfig := assistant.DefaultConfig()
	assistantConfig.APIKey = cfg.PineconeAPIKey
	assistantConfig.BaseURL = cfg.AssistantBaseURL
	provider, err := assistant.NewPineconeProvider(assistantConfig, services.NewLogger("assistant"))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize assistant provider: %v", err)
	}

	healthCtx, healthCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := provider.HealthCheck(healthCtx); err != nil {
		log.Printf("WARNING: assistant provider health check failed: %v", err)
	}
	healthCancel()

	gateway, err := assistant.NewGateway(assistantConfig, provider, services.NewLogger("gateway"))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize assistant gateway: %v", err)
	}

	openaiClient := imagegen.NewOpenAIClient(cfg.OpenAIAPIKey)
	imageService, err := imagegen.NewService(imagegen.DefaultConfig(cfg.OpenAIAPIKey), openaiClient, services.NewLogger("imagegen"))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize image service: %v", err)
	}

	npcGenerator, err := npc.NewGenerator(npc.DefaultConfig(), openaiClient, imageService, services.NewLogger("npc"))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize NPC generator: %v", err)
	}

	fileService, err := files.NewService(openaiClient, services.NewLogger("files"))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize file service: %v", err)
	}

	manager := session.NewManager(conversationRepo, userRepo, gateway, services.NewLogger("session"))

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(userRepo, []byte(cfg.JWTSecretKey), cfg.DefaultAssistant)
	conversationHandler := handlers.NewConversationHandler(manager)
	chatHandler := handlers.NewChatHandler(manager)
	settingsHandler := handlers.NewSettingsHandler(userRepo)
	imageHandler := handlers.NewImageHandler(manager, imageService)
	npcHandler := handlers.NewNPCHandler(manager, npcGenerator)
	fileHandler := handlers.NewFileHandler(fileService)

	// --- Router Setup ---
	r := mux.NewRouter()
	authMiddleware := middleware.NewJWTMiddleware([]byte(cfg.JWTSecretKey))

	r.Use(middleware.RecoverPanic)
	r.Use(middleware.LoggingMiddleware)

	// --- Public Routes ---
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")
	r.HandleFunc("/api/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/logout", authHandler.Logout).Methods("POST")

	// --- Protected Routes ---
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware)

	api.HandleFunc("/conversations", conversationHandler.List).Methods("GET")
	api.HandleFunc("/conversations", conversationHandler.Create).Methods("POST")
	api.HandleFunc("/conversations/{id}/select", conversationHandler.Select).Methods("POST")
	api.HandleFunc("/conversations/{id}/rename/begin", conversationHandler.BeginRename).Methods("POST")
	api.HandleFunc("/conversations/rename/cancel", conversationHandler.CancelRename).Methods("POST")
	api.HandleFunc("/conversations/{id}/delete/begin", conversationHandler.BeginDelete).Methods("POST")
	api.HandleFunc("/conversations/delete/cancel", conversationHandler.CancelDelete).Methods("POST")
	api.HandleFunc("/conversations/{id}", conversationHandler.Rename).Methods("PUT")
	api.HandleFunc("/conversations/{id}", conversationHandler.Delete).Methods("DELETE")
	api.HandleFunc("/messages", conversationHandler.Messages).Methods("GET")
	api.HandleFunc("/messages/{index:[0-9]+}/edit/begin", conversationHandler.BeginEditMessage).Methods("POST")
	api.HandleFunc("/messages/edit/cancel", conversationHandler.CancelEditMessage).Methods("POST")
	api.HandleFunc("/messages/{index:[0-9]+}", conversationHandler.EditMessage).Methods("PUT")
	api.HandleFunc("/chat", chatHandler.HandleChatMessage).Methods("POST")

	api.HandleFunc("/settings/profile", settingsHandler.Profile).Methods("GET")
	api.HandleFunc("/settings/profile", settingsHandler.UpdateProfile).Methods("PUT")
	api.HandleFunc("/settings/password", settingsHandler.ChangePassword).Methods("PUT")
	api.HandleFunc("/settings/history-limit", settingsHandler.UpdateHistoryLimit).Methods("PUT")

	api.HandleFunc("/images/prompt", imageHandler.SynthesizePrompt).Methods("POST")
	api.HandleFunc("/images/prompt", imageHandler.UpdatePrompt).Methods("PUT")
	api.HandleFunc("/images/generate", imageHandler.Generate).Methods("POST")
	api.HandleFunc("/npc", npcHandler.Generate).Methods("POST")

	api.HandleFunc("/files", fileHandler.Upload).Methods("POST")
	api.HandleFunc("/files", fileHandler.List).Methods("GET")
	api.HandleFunc("/files/{id}", fileHandler.Delete).Methods("DELETE")

	// --- Server Configuration ---
	port := ":8080"
	if cfg.ServerPort != "" {
		port = ":" + cfg.ServerPort
	}
	srv := &http.Server{
		Addr:    port,
		Handler: r,
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("TTRPG Buddy starting on port %s", port)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully")
}
