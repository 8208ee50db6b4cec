package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mkarpushin/todo-sync-api/internal/clock"
	"github.com/mkarpushin/todo-sync-api/internal/config"
	"github.com/mkarpushin/todo-sync-api/internal/handler"
	"github.com/mkarpushin/todo-sync-api/internal/migrate"
	"github.com/mkarpushin/todo-sync-api/internal/notify"
	"github.com/mkarpushin/todo-sync-api/internal/reminder"
	"github.com/mkarpushin/todo-sync-api/internal/repo"
	"github.com/mkarpushin/todo-sync-api/internal/service"
)

func main() {
	// Подключаем логгер
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Загрузка конфигурации
	cfg := config.Load()

	// Накатываем миграции и подключаем БД
	if err := migrate.Up(context.Background(), cfg.DatabaseURL); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to Database.") // Fatal потому что дальнейшая работа теряет смысл
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal("Failed to ping the Database.")
	}
	logger.Info("Successfully connected to the Database!")

	clk := clock.System()

	taskRepo := repo.NewTaskRepo(pool)
	tagRepo := repo.NewTagRepo(pool)

	taskService := service.NewTaskService(taskRepo, clk)
	tagService := service.NewTagService(tagRepo, clk)
	syncService := service.NewSyncService(taskRepo, clk)

	taskHandler := handler.NewTaskHandler(taskService, syncService, logger)
	tagHandler := handler.NewTagHandler(tagService, logger)

	r := chi.NewRouter() // Создаем роутер
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"service":"todo-sync-api","version":"1.0"}`)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sync", taskHandler.Sync)

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.Create)
			r.Get("/", taskHandler.List)
			r.Get("/{id}", taskHandler.Get)
			r.Patch("/{id}", taskHandler.Update)
			r.Delete("/{id}", taskHandler.Delete)
			r.Delete("/{id}/hard", taskHandler.HardDelete)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Post("/", tagHandler.Create)
			r.Get("/", tagHandler.List)
			r.Get("/{id}", tagHandler.Get)
			r.Patch("/{id}", tagHandler.Update)
			r.Delete("/{id}", tagHandler.Delete)
		})

		r.Get("/stats", taskHandler.Stats)
	})

	// Сканер напоминаний работает только при настроенном ntfy
	var scanner *reminder.Scanner
	if cfg.NtfyURL != "" {
		sender := notify.NewNtfySender(cfg.NtfyURL, cfg.NtfyTopic, cfg.NtfyToken, logger)
		scanner = reminder.NewScanner(taskRepo, sender, reminder.NewNotifiedSet(), clk, logger, cfg.ReminderInterval)
		scanner.Start(context.Background())
	} else {
		logger.Info("NTFY_URL not configured, task reminders disabled")
	}

	srv := http.Server{ // Создаем сервер
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started at ", zap.String("port", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed: ", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	if scanner != nil {
		scanner.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Shutdown error: ", zap.Error(err))
	}
	logger.Info("Server stopped succsessfully!")
}
