package handlers

import (
	"strings"

	"github.com/gamefund/backend/internal/middleware"
	"github.com/gamefund/backend/internal/models"
	"github.com/gamefund/backend/pkg/logger"
	"github.com/gamefund/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{DB: db}
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return utils.Error(c, fiber.StatusBadRequest, "a valid email is required")
	}
	if len(req.Password) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return utils.Error(c, fiber.StatusBadRequest, "first and last name are required")
	}

	var existing models.User
	if err := h.DB.First(&existing, "email = ?", req.Email).Error; err == nil {
		return utils.Error(c, fiber.StatusConflict, "email already registered")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		logger.Error("password_hash_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed to create user")
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         models.UserRoleUser,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		logger.Error("user_create_failed", err, map[string]interface{}{"email": req.Email})
		return utils.Error(c, fiber.StatusInternalServerError, "failed to create user")
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		logger.Error("token_generation_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed to generate token")
	}

	logger.InfoWithUser(user.ID.String(), "user_registered", map[string]interface{}{"email": user.Email})
	return utils.Success(c, fiber.StatusCreated, authResponse{Token: token, User: &user})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.DB.First(&user, "email = ?", req.Email).Error; err != nil {
		logger.Warn("login_unknown_email", map[string]interface{}{"email": req.Email, "ip": c.IP()})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		logger.WarnWithUser(user.ID.String(), "login_bad_password", map[string]interface{}{"ip": c.IP()})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		logger.Error("token_generation_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed to generate token")
	}

	logger.InfoWithUser(user.ID.String(), "user_logged_in", nil)
	return utils.Success(c, fiber.StatusOK, authResponse{Token: token, User: &user})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, user)
}

type updateMeRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	AvatarURL *string `json:"avatarURL"`
	Password  *string `json:"password"`
}

func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		if strings.TrimSpace(*req.FirstName) == "" {
			return utils.Error(c, fiber.StatusBadRequest, "first name cannot be empty")
		}
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		if strings.TrimSpace(*req.LastName) == "" {
			return utils.Error(c, fiber.StatusBadRequest, "last name cannot be empty")
		}
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
		}
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			logger.Error("password_hash_failed", err, nil)
			return utils.Error(c, fiber.StatusInternalServerError, "failed to update profile")
		}
		updates["password_hash"] = hash
	}

	if len(updates) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	if err := h.DB.Model(user).Updates(updates).Error; err != nil {
		logger.ErrorWithUser(user.ID.String(), "profile_update_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed to update profile")
	}

	logger.InfoWithUser(user.ID.String(), "profile_updated", nil)
	return utils.Success(c, fiber.StatusOK, user)
}
