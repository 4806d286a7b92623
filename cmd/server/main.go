package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/hualidepianju/ElderEnglishLearner/internal/chat"
	"github.com/hualidepianju/ElderEnglishLearner/internal/db"
	"github.com/hualidepianju/ElderEnglishLearner/internal/learning"
	appMiddleware "github.com/hualidepianju/ElderEnglishLearner/internal/middleware"
	"github.com/hualidepianju/ElderEnglishLearner/internal/user"
	"github.com/hualidepianju/ElderEnglishLearner/internal/vocabulary"
	"github.com/hualidepianju/ElderEnglishLearner/internal/writing"
)

func main() {
	// 1. Config & Flags
	addr := flag.String("addr", ":8080", "http service address")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("❌ DB_DSN is not set")
	}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("❌ SESSION_SECRET is not set")
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	// 2. Connect to Database (Platform Layer)
	database, err := db.NewDatabase(dsn)
	if err != nil {
		log.Fatalf("❌ Failed to connect to DB: %v", err)
	}
	log.Println("✅ Connected to PostgreSQL")

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database Schema Initialized")

	// 3. Connect to Redis (message page cache)
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	log.Println("✅ Connected to Redis")

	// 4. User Feature + Auth
	userRepo := user.NewRepository(database.Conn)
	userService := user.NewService(userRepo, sessionSecret)
	userHandler := user.NewHandler(userService)
	authMiddleware := appMiddleware.NewAuthMiddleware(userService)

	// 5. Learning / Vocabulary / Writing Features
	learningHandler := learning.NewHandler(learning.NewRepository(database.Conn))
	vocabHandler := vocabulary.NewHandler(vocabulary.NewRepository(database.Conn))
	writingHandler := writing.NewHandler(writing.NewRepository(database.Conn))

	// 6. Chat Feature
	chatRepo := chat.NewRepository(database.Conn, redisClient)
	hub := chat.NewHub(chat.NewRegistry(), chatRepo)
	go hub.Run()
	chatHandler := chat.NewHandler(hub, chatRepo)

	// 7. Routes
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Public
	r.Post("/api/register", userHandler.Register)
	r.Post("/api/login", userHandler.Login)
	r.Post("/api/logout", userHandler.Logout)

	// Authenticated (session cookie)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)

		r.Get("/api/user", userHandler.Me)
		r.Put("/api/users/{id}", userHandler.Update)

		r.Get("/api/learning", learningHandler.ListContent)
		r.Get("/api/learning/{id}", learningHandler.GetContent)
		r.Get("/api/progress", learningHandler.ListProgress)
		r.Post("/api/progress", learningHandler.UpsertProgress)

		r.Get("/api/chat/rooms", chatHandler.ListRooms)
		r.Get("/api/chat/rooms/{id}", chatHandler.GetRoom)
		r.Get("/api/chat/rooms/{id}/messages", chatHandler.GetMessages)

		r.Get("/api/vocabulary", vocabHandler.List)
		r.Post("/api/vocabulary", vocabHandler.Add)
		r.Delete("/api/vocabulary/{id}", vocabHandler.Delete)

		r.Get("/api/writings", writingHandler.List)
		r.Post("/api/writings", writingHandler.Create)
		r.Get("/api/writings/{id}", writingHandler.Get)
		r.Put("/api/writings/{id}", writingHandler.Update)
		r.Delete("/api/writings/{id}", writingHandler.Delete)

		// WebSocket (Real-time chat)
		r.Get("/ws", chatHandler.ServeWs)

		// Admin
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAdmin)

			r.Post("/api/admin/learning", learningHandler.CreateContent)
			r.Put("/api/admin/learning/{id}", learningHandler.UpdateContent)
			r.Delete("/api/admin/learning/{id}", learningHandler.DeleteContent)

			r.Post("/api/admin/chat/rooms", chatHandler.CreateRoom)
			r.Put("/api/admin/chat/rooms/{id}", chatHandler.UpdateRoom)

			r.Post("/api/admin/writings/{id}/feedback", writingHandler.Feedback)
		})
	})

	log.Printf("🚀 Server starting on %s", *addr)
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatal(err)
	}
}
