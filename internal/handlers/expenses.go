package handlers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gamefund/backend/internal/models"
	"github.com/gamefund/backend/internal/services"
	"github.com/gamefund/backend/internal/storage"
	"github.com/gamefund/backend/pkg/logger"
	"github.com/gamefund/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	maxReceiptSize   = 10 << 20 // 10 MiB
	receiptURLExpiry = 15 * time.Minute
)

var allowedReceiptTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

type ExpensesHandler struct {
	DB      *gorm.DB
	Ledger  *services.LedgerService
	Groups  *GroupsHandler
	Storage *storage.MinIOClient
}

func NewExpensesHandler(db *gorm.DB, ledgerSvc *services.LedgerService, groups *GroupsHandler, store *storage.MinIOClient) *ExpensesHandler {
	return &ExpensesHandler{DB: db, Ledger: ledgerSvc, Groups: groups, Storage: store}
}

type createExpenseRequest struct {
	GroupID     uuid.UUID       `json:"groupID"`
	PaidByID    *uuid.UUID      `json:"paidByID"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        *string         `json:"date"`
	ReceiptURL  *string         `json:"receiptURL"`
}

func (h *ExpensesHandler) Create(c *fiber.Ctx) error {
	var req createExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.GroupID == uuid.Nil {
		return utils.Error(c, fiber.StatusBadRequest, "groupID is required")
	}

	actor, _, err := h.Groups.requireMembership(c, req.GroupID, false)
	if err != nil {
		return respondLedgerError(c, err)
	}

	paidByID := actor.ID
	if req.PaidByID != nil {
		paidByID = *req.PaidByID
	}

	date := time.Now()
	if req.Date != nil && *req.Date != "" {
		parsed, err := parseDate(*req.Date)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, err.Error())
		}
		date = parsed
	}

	expense, err := h.Ledger.RecordExpense(c.Context(), services.RecordExpenseInput{
		GroupID:     req.GroupID,
		CreatedByID: actor.ID,
		PaidByID:    paidByID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
		ReceiptURL:  req.ReceiptURL,
	})
	if err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(actor.ID.String(), "expense_recorded", map[string]interface{}{
		"group_id":   req.GroupID,
		"expense_id": expense.ID,
		"amount":     expense.Amount.String(),
	})
	return utils.Success(c, fiber.StatusCreated, expense)
}

func (h *ExpensesHandler) ListByGroup(c *fiber.Ctx) error {
	groupID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	if _, _, err := h.Groups.requireMembership(c, groupID, false); err != nil {
		return respondLedgerError(c, err)
	}

	params := utils.ParsePagination(c)

	query := h.DB.Model(&models.Expense{}).Where("group_id = ?", groupID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return respondLedgerError(c, err)
	}

	var expenses []models.Expense
	err = utils.ApplyPagination(query.Preload("CreatedBy").Preload("PaidBy").Order("date DESC"), params).
		Find(&expenses).Error
	if err != nil {
		return respondLedgerError(c, err)
	}

	return utils.Paginated(c, expenses, params.Page, params.Limit, total)
}

func (h *ExpensesHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	expense, err := h.Ledger.Expense(c.Context(), id)
	if err != nil {
		return respondLedgerError(c, err)
	}

	actor, _, err := h.Groups.requireMembership(c, expense.GroupID, true)
	if err != nil {
		return respondLedgerError(c, err)
	}

	status := models.ExpenseStatus(c.Params("status"))
	expense, err = h.Ledger.SetExpenseStatus(c.Context(), id, status)
	if err != nil {
		return respondLedgerError(c, err)
	}

	logger.InfoWithUser(actor.ID.String(), "expense_status_updated", map[string]interface{}{
		"expense_id": id,
		"status":     status,
	})
	return utils.Success(c, fiber.StatusOK, expense)
}

func (h *ExpensesHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	expense, err := h.Ledger.Expense(c.Context(), id)
	if err != nil {
		return respondLedgerError(c, err)
	}

	actor, actorMember, err := h.Groups.requireMembership(c, expense.GroupID, false)
	if err != nil {
		return respondLedgerError(c, err)
	}
	if expense.CreatedByID != actor.ID && !actorMember.IsAdmin {
		return utils.Error(c, fiber.StatusForbidden, "only the creator or a group admin can delete an expense")
	}

	if err := h.Ledger.DeleteExpense(c.Context(), id); err != nil {
		return respondLedgerError(c, err)
	}

	if expense.ReceiptKey != nil && h.Storage != nil {
		if err := h.Storage.Delete(c.Context(), *expense.ReceiptKey); err != nil {
			logger.WarnWithUser(actor.ID.String(), "receipt_cleanup_failed", map[string]interface{}{
				"expense_id": id,
				"error":      err.Error(),
			})
		}
	}

	logger.InfoWithUser(actor.ID.String(), "expense_deleted", map[string]interface{}{"expense_id": id})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// UploadReceipt stores a receipt file for an expense in object
// storage. Replaces any previous receipt.
func (h *ExpensesHandler) UploadReceipt(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	expense, err := h.Ledger.Expense(c.Context(), id)
	if err != nil {
		return respondLedgerError(c, err)
	}

	actor, actorMember, err := h.Groups.requireMembership(c, expense.GroupID, false)
	if err != nil {
		return respondLedgerError(c, err)
	}
	if expense.CreatedByID != actor.ID && !actorMember.IsAdmin {
		return utils.Error(c, fiber.StatusForbidden, "only the creator or a group admin can upload a receipt")
	}

	if h.Storage == nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "receipt storage is not configured")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}
	if fileHeader.Size > maxReceiptSize {
		return utils.Error(c, fiber.StatusBadRequest, "file exceeds the 10MB limit")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedReceiptTypes[contentType] {
		return utils.Error(c, fiber.StatusBadRequest, "unsupported file type")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "failed to read file")
	}
	defer file.Close()

	oldKey := expense.ReceiptKey
	key := fmt.Sprintf("receipts/%s/%s%s", expense.GroupID, uuid.New(), filepath.Ext(fileHeader.Filename))
	if err := h.Storage.Upload(c.Context(), key, file, fileHeader.Size, contentType); err != nil {
		return respondLedgerError(c, err)
	}

	expense, err = h.Ledger.SetExpenseReceiptKey(c.Context(), id, key)
	if err != nil {
		return respondLedgerError(c, err)
	}

	if oldKey != nil {
		if err := h.Storage.Delete(c.Context(), *oldKey); err != nil {
			logger.WarnWithUser(actor.ID.String(), "receipt_cleanup_failed", map[string]interface{}{
				"expense_id": id,
				"error":      err.Error(),
			})
		}
	}

	logger.InfoWithUser(actor.ID.String(), "receipt_attached", map[string]interface{}{
		"expense_id": id,
		"size":       fileHeader.Size,
	})
	return utils.Success(c, fiber.StatusOK, expense)
}

// Receipt returns a short-lived presigned download URL.
func (h *ExpensesHandler) Receipt(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	expense, err := h.Ledger.Expense(c.Context(), id)
	if err != nil {
		return respondLedgerError(c, err)
	}

	if _, _, err := h.Groups.requireMembership(c, expense.GroupID, false); err != nil {
		return respondLedgerError(c, err)
	}

	if expense.ReceiptKey == nil {
		if expense.ReceiptURL != nil {
			return utils.Success(c, fiber.StatusOK, fiber.Map{"url": *expense.ReceiptURL, "external": true})
		}
		return utils.Error(c, fiber.StatusNotFound, "receipt not found")
	}

	if h.Storage == nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "receipt storage is not configured")
	}

	url, err := h.Storage.PresignedGetURL(c.Context(), *expense.ReceiptKey, receiptURLExpiry)
	if err != nil {
		return respondLedgerError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"url": url, "expiresIn": int(receiptURLExpiry.Seconds())})
}
