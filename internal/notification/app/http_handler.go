package app

import (
	"strconv"

	"team_match_service/internal/notification/domain"
	errprocess "team_match_service/pkg/err"
	"team_match_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// NotificationHTTPHandler REST surface of the feed
type NotificationHTTPHandler struct {
	feedUC *FeedUseCase
}

// NewNotificationHTTPHandler create NotificationHTTPHandler
func NewNotificationHTTPHandler(feedUC *FeedUseCase) *NotificationHTTPHandler {
	return &NotificationHTTPHandler{feedUC: feedUC}
}

func statusOf(err error) int {
	switch errprocess.KindOf(err) {
	case errprocess.KindValidation:
		return fiber.StatusBadRequest
	case errprocess.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusOf(err)).JSON(fiber.Map{"error": err.Error()})
}

func viewer(c *fiber.Ctx) string {
	id, _ := c.Locals(middlewares.TokenUserID).(string)
	return id
}

// List GET /notifications?filter=all|unread&limit=<n>
func (h *NotificationHTTPHandler) List(c *fiber.Ctx) error {
	filter := domain.FilterAll
	if c.Query("filter") == string(domain.FilterUnread) {
		filter = domain.FilterUnread
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return fail(c, errprocess.Wrap(errprocess.KindValidation, "parse limit", err))
		}
		limit = parsed
	}

	rows, err := h.feedUC.List(c.Context(), viewer(c), filter, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"notifications": rows})
}

// MarkRead POST /notifications/:id/read — responds with the click-through
// link so the client can navigate.
func (h *NotificationHTTPHandler) MarkRead(c *fiber.Ctx) error {
	link, err := h.feedUC.MarkRead(c.Context(), c.Params("id"), viewer(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"read": true, "link_url": link})
}

// MarkAllRead POST /notifications/read_all
func (h *NotificationHTTPHandler) MarkAllRead(c *fiber.Ctx) error {
	if err := h.feedUC.MarkAllRead(c.Context(), viewer(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"read": true})
}

// UnreadCount GET /notifications/unread_count
func (h *NotificationHTTPHandler) UnreadCount(c *fiber.Ctx) error {
	count, err := h.feedUC.UnreadCount(c.Context(), viewer(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}
