package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gamefund/backend/internal/models"
	"github.com/gamefund/backend/internal/services"
	"github.com/shopspring/decimal"
)

func TestCreateGroup(t *testing.T) {
	env := setupTestEnv(t)
	owner, token := createTestUser(t, env.db, "owner@example.com", "password123", models.UserRoleUser)

	t.Run("creates group with implicit admin membership", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/groups/", map[string]any{
			"name":         "Friday Night Fund",
			"targetAmount": 1000,
			"dueDay":       15,
		}, authHeaders(token))
		assertStatus(t, resp, http.StatusCreated)

		data := dataMap(t, decodeJSONMap(t, resp))
		if data["name"] != "Friday Night Fund" {
			t.Fatalf("expected group name, got %v", data["name"])
		}
		if data["currency"] != "EUR" {
			t.Fatalf("expected default currency EUR, got %v", data["currency"])
		}

		var member models.GroupMember
		err := env.db.First(&member, "group_id = ? AND user_id = ?", data["id"], owner.ID).Error
		if err != nil {
			t.Fatalf("expected owner membership to exist: %v", err)
		}
		if !member.IsAdmin || !member.IsActive {
			t.Fatalf("expected owner to be an active admin, got %+v", member)
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/groups/", map[string]any{
			"targetAmount": 100,
		}, authHeaders(token))
		assertStatus(t, resp, http.StatusBadRequest)
		assertEnvelopeError(t, decodeJSONMap(t, resp), "group name is required")
	})

	t.Run("rejects out-of-range due day", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/groups/", map[string]any{
			"name":         "Bad Schedule",
			"targetAmount": 100,
			"dueDay":       29,
		}, authHeaders(token))
		assertStatus(t, resp, http.StatusBadRequest)
		assertEnvelopeError(t, decodeJSONMap(t, resp), "due day must be between 1 and 28")
	})

	t.Run("requires authentication", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/groups/", map[string]any{
			"name": "Nope",
		}, nil)
		assertStatus(t, resp, http.StatusUnauthorized)
	})
}

func TestGetGroupMembershipGate(t *testing.T) {
	env := setupTestEnv(t)
	owner, ownerToken := createTestUser(t, env.db, "owner@example.com", "password123", models.UserRoleUser)
	_, strangerToken := createTestUser(t, env.db, "stranger@example.com", "password123", models.UserRoleUser)

	group := createTestGroup(t, env, owner.ID, 500, nil)

	t.Run("member can read the group", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodGet, "/api/groups/"+group.ID.String(), nil, authHeaders(ownerToken))
		assertStatus(t, resp, http.StatusOK)
	})

	t.Run("non-member is rejected", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodGet, "/api/groups/"+group.ID.String(), nil, authHeaders(strangerToken))
		assertStatus(t, resp, http.StatusForbidden)
	})

	t.Run("unknown group is not found", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodGet, "/api/groups/00000000-0000-0000-0000-000000000001", nil, authHeaders(ownerToken))
		assertStatus(t, resp, http.StatusNotFound)
	})
}

func TestUpdateGroup(t *testing.T) {
	env := setupTestEnv(t)
	owner, ownerToken := createTestUser(t, env.db, "owner@example.com", "password123", models.UserRoleUser)
	member, memberToken := createTestUser(t, env.db, "member@example.com", "password123", models.UserRoleUser)

	group := createTestGroup(t, env, owner.ID, 500, nil)
	addTestMember(t, env, group.ID, member.ID, false)

	t.Run("admin can update due day", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/groups/"+group.ID.String(), map[string]any{
			"dueDay": 22,
		}, authHeaders(ownerToken))
		assertStatus(t, resp, http.StatusOK)

		data := dataMap(t, decodeJSONMap(t, resp))
		if data["dueDay"] != float64(22) {
			t.Fatalf("expected dueDay 22, got %v", data["dueDay"])
		}
	})

	t.Run("non-admin member cannot update", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/groups/"+group.ID.String(), map[string]any{
			"name": "Hijacked",
		}, authHeaders(memberToken))
		assertStatus(t, resp, http.StatusForbidden)
	})

	t.Run("clearing the due day removes the schedule", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/groups/"+group.ID.String(), map[string]any{
			"clearDueDay": true,
		}, authHeaders(ownerToken))
		assertStatus(t, resp, http.StatusOK)

		data := dataMap(t, decodeJSONMap(t, resp))
		if _, present := data["dueDay"]; present && data["dueDay"] != nil {
			t.Fatalf("expected dueDay to be cleared, got %v", data["dueDay"])
		}
	})
}

func TestDeleteGroup(t *testing.T) {
	env := setupTestEnv(t)
	owner, ownerToken := createTestUser(t, env.db, "owner@example.com", "password123", models.UserRoleUser)
	admin, adminToken := createTestUser(t, env.db, "admin@example.com", "password123", models.UserRoleUser)

	group := createTestGroup(t, env, owner.ID, 500, nil)
	addTestMember(t, env, group.ID, admin.ID, true)

	t.Run("non-owner admin cannot delete", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodDelete, "/api/groups/"+group.ID.String(), nil, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, decodeJSONMap(t, resp), "only the group owner can delete the group")
	})

	t.Run("owner deactivates the group", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodDelete, "/api/groups/"+group.ID.String(), nil, authHeaders(ownerToken))
		assertStatus(t, resp, http.StatusOK)

		var stored models.Group
		if err := env.db.First(&stored, "id = ?", group.ID).Error; err != nil {
			t.Fatalf("expected group row to survive: %v", err)
		}
		if stored.IsActive {
			t.Fatal("expected group to be deactivated")
		}
	})
}

func TestGroupSummary(t *testing.T) {
	env := setupTestEnv(t)
	owner, ownerToken := createTestUser(t, env.db, "owner@example.com", "password123", models.UserRoleUser)

	dueDay := 15
	group := createTestGroup(t, env, owner.ID, 1000, &dueDay)

	// Realized: one paid contribution of 100, one approved expense of
	// 30. The pending contribution and proposed expense must not count.
	recordContribution := func(amount float64, status models.ContributionStatus) {
		t.Helper()
		contribution, err := env.ledger.RecordContribution(testCtx(), services.RecordContributionInput{
			GroupID:       group.ID,
			ContributorID: owner.ID,
			RecordedByID:  owner.ID,
			Amount:        decimal.NewFromFloat(amount),
			Date:          time.Now(),
		})
		if err != nil {
			t.Fatalf("failed recording contribution: %v", err)
		}
		if _, err := env.ledger.SetContributionStatus(testCtx(), contribution.ID, status); err != nil {
			t.Fatalf("failed setting contribution status: %v", err)
		}
	}
	recordExpense := func(amount float64, status models.ExpenseStatus) {
		t.Helper()
		expense, err := env.ledger.RecordExpense(testCtx(), services.RecordExpenseInput{
			GroupID:     group.ID,
			CreatedByID: owner.ID,
			PaidByID:    owner.ID,
			Title:       "Supplies",
			Amount:      decimal.NewFromFloat(amount),
			Date:        time.Now(),
		})
		if err != nil {
			t.Fatalf("failed recording expense: %v", err)
		}
		if _, err := env.ledger.SetExpenseStatus(testCtx(), expense.ID, status); err != nil {
			t.Fatalf("failed setting expense status: %v", err)
		}
	}

	recordContribution(100, models.ContributionStatusPaid)
	recordContribution(50, models.ContributionStatusPending)
	recordExpense(30, models.ExpenseStatusApproved)
	recordExpense(20, models.ExpenseStatusProposed)

	resp := performJSONRequest(t, env.app, http.MethodGet, "/api/groups/"+group.ID.String()+"/summary", nil, authHeaders(ownerToken))
	assertStatus(t, resp, http.StatusOK)

	data := dataMap(t, decodeJSONMap(t, resp))
	totals, ok := data["totals"].(map[string]any)
	if !ok {
		t.Fatalf("expected totals object, got %+v", data)
	}

	assertMoney := func(key, expected string) {
		t.Helper()
		money, ok := totals[key].(map[string]any)
		if !ok {
			t.Fatalf("expected %s money object, got %+v", key, totals[key])
		}
		if money["amount"] != expected {
			t.Fatalf("expected %s amount %s, got %v", key, expected, money["amount"])
		}
		if money["currency"] != "EUR" {
			t.Fatalf("expected %s currency EUR, got %v", key, money["currency"])
		}
	}

	assertMoney("totalContributions", "100")
	assertMoney("totalExpenses", "30")
	assertMoney("balance", "70")

	if totals["progress"] != float64(7) {
		t.Fatalf("expected progress 7, got %v", totals["progress"])
	}

	dueDate, ok := data["nextDueDate"].(map[string]any)
	if !ok {
		t.Fatalf("expected nextDueDate object, got %+v", data["nextDueDate"])
	}
	if dueDate["label"] != "15th of every month" {
		t.Fatalf("expected due-date label, got %v", dueDate["label"])
	}
	if dueDate["dueDay"] != float64(15) {
		t.Fatalf("expected dueDay 15, got %v", dueDate["dueDay"])
	}
	if data["memberCount"] != float64(1) {
		t.Fatalf("expected memberCount 1, got %v", data["memberCount"])
	}
}

func TestListGroupsReturnsOnlyMine(t *testing.T) {
	env := setupTestEnv(t)
	owner, ownerToken := createTestUser(t, env.db, "owner@example.com", "password123", models.UserRoleUser)
	other, _ := createTestUser(t, env.db, "other@example.com", "password123", models.UserRoleUser)

	for i := 0; i < 2; i++ {
		createTestGroup(t, env, owner.ID, 100, nil)
	}
	createTestGroup(t, env, other.ID, 100, nil)

	resp := performJSONRequest(t, env.app, http.MethodGet, "/api/groups/", nil, authHeaders(ownerToken))
	assertStatus(t, resp, http.StatusOK)

	body := decodeJSONMap(t, resp)
	groups, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected data array, got %+v", body)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	resp = performJSONRequest(t, env.app, http.MethodGet, "/api/groups/user", nil, authHeaders(ownerToken))
	assertStatus(t, resp, http.StatusOK)
}

func TestGroupSummaryNegativeBalance(t *testing.T) {
	env := setupTestEnv(t)
	owner, ownerToken := createTestUser(t, env.db, "owner@example.com", "password123", models.UserRoleUser)

	group := createTestGroup(t, env, owner.ID, 1000, nil)

	contribution, err := env.ledger.RecordContribution(testCtx(), services.RecordContributionInput{
		GroupID:       group.ID,
		ContributorID: owner.ID,
		RecordedByID:  owner.ID,
		Amount:        decimal.NewFromInt(20),
		Date:          time.Now(),
	})
	if err != nil {
		t.Fatalf("failed recording contribution: %v", err)
	}
	if _, err := env.ledger.SetContributionStatus(testCtx(), contribution.ID, models.ContributionStatusPaid); err != nil {
		t.Fatalf("failed marking contribution paid: %v", err)
	}

	expense, err := env.ledger.RecordExpense(testCtx(), services.RecordExpenseInput{
		GroupID:     group.ID,
		CreatedByID: owner.ID,
		PaidByID:    owner.ID,
		Title:       "Venue",
		Amount:      decimal.NewFromInt(50),
		Date:        time.Now(),
	})
	if err != nil {
		t.Fatalf("failed recording expense: %v", err)
	}
	if _, err := env.ledger.SetExpenseStatus(testCtx(), expense.ID, models.ExpenseStatusCompleted); err != nil {
		t.Fatalf("failed completing expense: %v", err)
	}

	resp := performJSONRequest(t, env.app, http.MethodGet, fmt.Sprintf("/api/groups/%s/summary", group.ID), nil, authHeaders(ownerToken))
	assertStatus(t, resp, http.StatusOK)

	data := dataMap(t, decodeJSONMap(t, resp))
	totals := data["totals"].(map[string]any)
	balance := totals["balance"].(map[string]any)
	if balance["amount"] != "-30" {
		t.Fatalf("expected balance -30, got %v", balance["amount"])
	}
	if totals["progressClamped"] != float64(0) {
		t.Fatalf("expected clamped progress 0, got %v", totals["progressClamped"])
	}
}
