package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gamefund/backend/internal/middleware"
	"github.com/gamefund/backend/internal/models"
	"github.com/gamefund/backend/internal/services"
	"github.com/gamefund/backend/pkg/logger"
	"github.com/gamefund/backend/pkg/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	ledger *services.LedgerService
	polls  *services.PollService
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.Contribution{},
		&models.Expense{},
		&models.Poll{},
		&models.PollOption{},
		&models.PollVote{},
	)
	if err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	ledgerService := services.NewLedgerService(db)
	pollService := services.NewPollService(db)

	authHandler := NewAuthHandler(db)
	usersHandler := NewUsersHandler(db)
	groupsHandler := NewGroupsHandler(db, ledgerService)
	membersHandler := NewMembersHandler(db, ledgerService, groupsHandler)
	contributionsHandler := NewContributionsHandler(db, ledgerService, groupsHandler)
	expensesHandler := NewExpensesHandler(db, ledgerService, groupsHandler, nil)
	pollsHandler := NewPollsHandler(db, pollService, groupsHandler)
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

	return &testEnv{app: app, db: db, ledger: ledgerService, polls: pollService}
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

// createTestGroup makes a group owned by the given user, including the
// implicit admin membership.
func createTestGroup(t *testing.T, env *testEnv, ownerID uuid.UUID, target float64, dueDay *int) *models.Group {
	t.Helper()

	group, err := env.ledger.CreateGroup(testCtx(), ownerID, services.CreateGroupInput{
		Name:         "Test Fund",
		TargetAmount: decimal.NewFromFloat(target),
		DueDay:       dueDay,
	})
	if err != nil {
		t.Fatalf("failed creating test group: %v", err)
	}
	return group
}

func addTestMember(t *testing.T, env *testEnv, groupID, userID uuid.UUID, isAdmin bool) *models.GroupMember {
	t.Helper()

	member, err := env.ledger.AddMember(testCtx(), groupID, userID, isAdmin, nil)
	if err != nil {
		t.Fatalf("failed adding test member: %v", err)
	}
	return member
}

func testCtx() context.Context {
	return context.Background()
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}

func dataMap(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %+v", body)
	}
	return data
}
