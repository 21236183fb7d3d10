package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gamefund/backend/internal/config"
	"github.com/gamefund/backend/internal/database"
	"github.com/gamefund/backend/internal/handlers"
	"github.com/gamefund/backend/internal/middleware"
	"github.com/gamefund/backend/internal/services"
	"github.com/gamefund/backend/internal/storage"
	"github.com/gamefund/backend/pkg/logger"
	"github.com/gamefund/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	ledgerService := services.NewLedgerService(db)
	ledgerService.DefaultCurrency = cfg.Ledger.DefaultCurrency
	pollService := services.NewPollService(db)

	authHandler := handlers.NewAuthHandler(db)
	usersHandler := handlers.NewUsersHandler(db)
	groupsHandler := handlers.NewGroupsHandler(db, ledgerService)
	membersHandler := handlers.NewMembersHandler(db, ledgerService, groupsHandler)
	contributionsHandler := handlers.NewContributionsHandler(db, ledgerService, groupsHandler)
	expensesHandler := handlers.NewExpensesHandler(db, ledgerService, groupsHandler, storageClient)
	pollsHandler := handlers.NewPollsHandler(db, pollService, groupsHandler)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 15 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Put("/me", authMiddleware.RequireAuth, authHandler.UpdateMe)

	api.Get("/users/search", authMiddleware.RequireAuth, usersHandler.Search)

	userRoutes := api.Group("/users", authMiddleware.RequireAuth, middleware.AdminOnly)
	userRoutes.Get("/", usersHandler.List)
	userRoutes.Get("/:id", usersHandler.Get)

	groupRoutes := api.Group("/groups", authMiddleware.RequireAuth)
	groupRoutes.Post("/", groupsHandler.Create)
	groupRoutes.Get("/", groupsHandler.List)
	groupRoutes.Get("/user", groupsHandler.List)
	groupRoutes.Get("/:id", groupsHandler.Get)
	groupRoutes.Put("/:id", groupsHandler.Update)
	groupRoutes.Delete("/:id", groupsHandler.Delete)
	groupRoutes.Get("/:id/summary", groupsHandler.Summary)
	groupRoutes.Get("/:id/members", membersHandler.List)
	groupRoutes.Post("/:id/members", membersHandler.Add)
	groupRoutes.Post("/:id/members/pause-contribution", membersHandler.PauseContribution)
	groupRoutes.Post("/:id/members/:memberId/resume-contribution", membersHandler.ResumeContribution)
	groupRoutes.Delete("/:id/members/:memberId", membersHandler.Remove)
	groupRoutes.Patch("/:id/members/:memberId/role", membersHandler.UpdateRole)

	contributionRoutes := api.Group("/contributions", authMiddleware.RequireAuth)
	contributionRoutes.Post("/", contributionsHandler.Create)
	contributionRoutes.Get("/user", contributionsHandler.ListMine)
	contributionRoutes.Get("/group/:id", contributionsHandler.ListByGroup)
	contributionRoutes.Put("/:id/status/:status", contributionsHandler.UpdateStatus)
	contributionRoutes.Delete("/:id", contributionsHandler.Delete)

	expenseRoutes := api.Group("/expenses", authMiddleware.RequireAuth)
	expenseRoutes.Post("/", expensesHandler.Create)
	expenseRoutes.Get("/group/:id", expensesHandler.ListByGroup)
	expenseRoutes.Put("/:id/status/:status", expensesHandler.UpdateStatus)
	expenseRoutes.Post("/:id/receipt", expensesHandler.UploadReceipt)
	expenseRoutes.Get("/:id/receipt", expensesHandler.Receipt)
	expenseRoutes.Delete("/:id", expensesHandler.Delete)

	pollRoutes := api.Group("/polls", authMiddleware.RequireAuth)
	pollRoutes.Post("/", pollsHandler.Create)
	pollRoutes.Get("/group/:id", pollsHandler.ListByGroup)
	pollRoutes.Get("/:id", pollsHandler.Get)
	pollRoutes.Post("/:id/votes", pollsHandler.Vote)
	pollRoutes.Put("/:id/close", pollsHandler.Close)
	pollRoutes.Delete("/:id", pollsHandler.Delete)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
