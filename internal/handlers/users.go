package handlers

import (
	"strings"

	"github.com/gamefund/backend/internal/models"
	"github.com/gamefund/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UsersHandler struct {
	DB *gorm.DB
}

func NewUsersHandler(db *gorm.DB) *UsersHandler {
	return &UsersHandler{DB: db}
}

// List returns all users, paginated. Platform admins only.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	params := utils.ParsePagination(c)

	var total int64
	if err := h.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed to list users")
	}

	var users []models.User
	if err := utils.ApplyPagination(h.DB.Order("created_at DESC"), params).Find(&users).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed to list users")
	}

	return utils.Paginated(c, users, params.Page, params.Limit, total)
}

// Search is the member picker: case-insensitive match on name or
// email, capped at 20 results.
func (h *UsersHandler) Search(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if len(query) < 2 {
		return utils.Error(c, fiber.StatusBadRequest, "query must be at least 2 characters")
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var users []models.User
	err := h.DB.
		Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", pattern, pattern, pattern).
		Limit(20).
		Find(&users).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed to search users")
	}

	return utils.Success(c, fiber.StatusOK, users)
}

func (h *UsersHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", id).Error; err != nil {
		return utils.Error(c, fiber.StatusNotFound, "user not found")
	}

	return utils.Success(c, fiber.StatusOK, &user)
}
