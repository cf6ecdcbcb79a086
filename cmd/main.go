package main

import (
	"errors"
	"log/slog"
	"os"
	"time"

	httpapi "github.com/immxrtalbeast/homechat/internal/api/http"
	"github.com/immxrtalbeast/homechat/internal/auth"
	"github.com/immxrtalbeast/homechat/internal/config"
	"github.com/immxrtalbeast/homechat/internal/registry"
	"github.com/immxrtalbeast/homechat/internal/repository"
	"github.com/immxrtalbeast/homechat/internal/repository/model"
	"github.com/immxrtalbeast/homechat/internal/service"
	"github.com/immxrtalbeast/homechat/lib/logger/slogpretty"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	db, err := connectDatabase(cfg.Database)
	if err != nil {
		log.Error("failed to connect database", slog.Any("error", err))
		os.Exit(1)
	}

	userRepo := repository.NewPostgresUserRepository(db)
	roomRepo := repository.NewPostgresRoomRepository(db)
	messageRepo := repository.NewPostgresMessageRepository(db)
	documentRepo := repository.NewPostgresDocumentRepository(db)

	tokens := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	guard := auth.NewGuard(tokens, userRepo, roomRepo, documentRepo)

	connections := registry.New()
	presence := service.NewPresenceTracker(userRepo, connections, log)
	chatService := service.NewChatService(roomRepo, messageRepo, guard, connections, log)
	documentService := service.NewDocumentService(documentRepo, guard, connections, log)
	userService := service.NewUserService(userRepo, tokens, log)
	roomService := service.NewRoomService(roomRepo, messageRepo, guard, log)

	authController := httpapi.NewAuthController(userService)
	roomController := httpapi.NewRoomController(roomService)
	documentController := httpapi.NewDocumentController(documentService)
	wsController := httpapi.NewWSController(guard, chatService, documentService, presence, connections, log)

	router := httpapi.SetupRouter(guard, authController, roomController, documentController, wsController, cfg.HTTP.AllowedOrigins)

	log.Info("starting application", slog.String("addr", cfg.HTTP.Address))
	if err := router.Run(cfg.HTTP.Address); err != nil {
		log.Error("http server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	db.AutoMigrate(
		&model.User{},
		&model.Room{},
		&model.RoomMember{},
		&model.Message{},
		&model.Document{},
		&model.DocumentCollaborator{},
	)

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
