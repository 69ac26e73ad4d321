package instrument

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"trigger-settings/internal/metadata"
	"trigger-settings/internal/store"
)

// EventHandler exposes the audit trail of the caller's workspace.
type EventHandler struct {
	db      *sql.DB
	dialect store.Dialect
}

// NewEventHandler creates an EventHandler backed by the given db and dialect.
func NewEventHandler(db *sql.DB, dialect store.Dialect) *EventHandler {
	return &EventHandler{db: db, dialect: dialect}
}

// List handles GET /api/audit/events (admin only).
func (h *EventHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, _ := c.Locals("user").(*metadata.UserContext)
	if !user.HasWorkspace() {
		return c.Status(403).JSON(fiber.Map{"error": fiber.Map{"code": "NO_WORKSPACE", "message": "No workspace selected"}})
	}

	pb := h.dialect.NewParamBuilder()
	conditions := []string{"workspace_id = " + pb.Add(user.WorkspaceID)}
	for _, col := range []string{"action", "entity", "record_id", "user_id"} {
		if v := c.Query(col); v != "" {
			conditions = append(conditions, fmt.Sprintf("%s = %s", col, pb.Add(v)))
		}
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.Query("per_page", "50"))
	if perPage < 1 {
		perPage = 50
	}
	if perPage > 100 {
		perPage = 100
	}
	if page > math.MaxInt32/perPage {
		return c.Status(400).JSON(fiber.Map{"error": fiber.Map{"code": "INVALID_PAGE", "message": "page is out of range"}})
	}
	offset := (page - 1) * perPage

	orderBy := "created_at DESC"
	if c.Query("sort") == "created_at" {
		orderBy = "created_at ASC"
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countRow, err := store.QueryRow(ctx, h.db, "SELECT COUNT(*) as count FROM _events"+whereClause, pb.Params()...)
	if err != nil {
		return fmt.Errorf("count events: %w", err)
	}
	total, _ := strconv.Atoi(store.AsString(countRow["count"]))

	limitPh, offsetPh := pb.Add(perPage), pb.Add(offset)
	rows, err := store.QueryRows(ctx, h.db,
		fmt.Sprintf("SELECT id, action, entity, record_id, user_id, workspace_id, metadata, created_at FROM _events%s ORDER BY %s LIMIT %s OFFSET %s",
			whereClause, orderBy, limitPh, offsetPh),
		pb.Params()...)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}

	return c.JSON(fiber.Map{
		"data": rows,
		"pagination": fiber.Map{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// RegisterEventRoutes adds the audit trail route.
func RegisterEventRoutes(app *fiber.App, h *EventHandler, middleware ...fiber.Handler) {
	events := app.Group("/api/audit", middleware...)
	events.Get("/events", h.List)
}
