package app

import (
	"strconv"
	"time"

	"team_match_service/internal/chat/domain"
	errprocess "team_match_service/pkg/err"
	"team_match_service/pkg/middlewares"
	"team_match_service/pkg/timefmt"

	"github.com/gofiber/fiber/v2"
)

// ChatHTTPHandler REST surface mirroring the websocket actions, used by
// server-side callers (project lifecycle hooks) and clients without a
// socket.
type ChatHTTPHandler struct {
	roomUC       *RoomUseCase
	messageUC    *MessageUseCase
	attachmentUC *AttachmentUseCase
}

// NewChatHTTPHandler create ChatHTTPHandler
func NewChatHTTPHandler(roomUC *RoomUseCase, messageUC *MessageUseCase, attachmentUC *AttachmentUseCase) *ChatHTTPHandler {
	return &ChatHTTPHandler{
		roomUC:       roomUC,
		messageUC:    messageUC,
		attachmentUC: attachmentUC,
	}
}

func statusOf(err error) int {
	switch errprocess.KindOf(err) {
	case errprocess.KindValidation:
		return fiber.StatusBadRequest
	case errprocess.KindNotFound:
		return fiber.StatusNotFound
	case errprocess.KindConflict:
		return fiber.StatusConflict
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

// ListRooms GET /rooms
func (h *ChatHTTPHandler) ListRooms(c *fiber.Ctx) error {
	summaries, err := h.roomUC.ListRooms(c.Context(), viewer(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"rooms": summaries})
}

// CreateDirectRoomReq direct room request body
type CreateDirectRoomReq struct {
	OtherUserID string `json:"other_user_id"`
}

// CreateDirectRoom POST /rooms/direct
func (h *ChatHTTPHandler) CreateDirectRoom(c *fiber.Ctx) error {
	var req CreateDirectRoomReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, errprocess.Wrap(errprocess.KindValidation, "parse body", err))
	}
	room, err := h.roomUC.FindOrCreateDirectRoom(c.Context(), viewer(c), req.OtherUserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"room": room})
}

// CreateProjectRoomReq project room request body
type CreateProjectRoomReq struct {
	ProjectID string   `json:"project_id"`
	Title     string   `json:"title"`
	MemberIDs []string `json:"member_ids"`
}

// CreateProjectRoom POST /rooms/project
func (h *ChatHTTPHandler) CreateProjectRoom(c *fiber.Ctx) error {
	var req CreateProjectRoomReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, errprocess.Wrap(errprocess.KindValidation, "parse body", err))
	}
	room, err := h.roomUC.CreateProjectRoom(c.Context(), req.ProjectID, req.Title, viewer(c), req.MemberIDs)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"room": room})
}

// SyncMembersReq roster sync request body
type SyncMembersReq struct {
	MemberIDs []string `json:"member_ids"`
}

// SyncMembers PUT /rooms/:id/members
func (h *ChatHTTPHandler) SyncMembers(c *fiber.Ctx) error {
	var req SyncMembersReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, errprocess.Wrap(errprocess.KindValidation, "parse body", err))
	}
	if err := h.roomUC.SyncProjectRoomMembers(c.Context(), c.Params("id"), req.MemberIDs); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"synced": true})
}

// History GET /rooms/:id/messages?before=<RFC3339>&limit=<n>
func (h *ChatHTTPHandler) History(c *fiber.Ctx) error {
	before := time.Now().UTC()
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return fail(c, errprocess.Wrap(errprocess.KindValidation, "parse before", err))
		}
		before = parsed
	}
	limit := int64(DefaultHistoryLimit)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fail(c, errprocess.Wrap(errprocess.KindValidation, "parse limit", err))
		}
		limit = parsed
	}

	messages, err := h.messageUC.HistoryBefore(c.Context(), c.Params("id"), viewer(c), before, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"messages": messages,
		"dividers": dateDividers(messages, c.Query("tz")),
	})
}

// DateDivider marks where a date label belongs in a rendered history: right
// before the message at Index.
type DateDivider struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

func dateDividers(messages []domain.Message, tz string) []DateDivider {
	loc, err := time.LoadLocation(tz)
	if err != nil || tz == "" {
		loc = time.UTC
	}

	now := time.Now().In(loc)
	dividers := []DateDivider{}
	for i, msg := range messages {
		if i == 0 || domain.NeedsDateDivider(messages[i-1], msg, loc) {
			dividers = append(dividers, DateDivider{
				Index: i,
				Label: timefmt.DividerLabel(msg.CreatedAt.In(loc), now),
			})
		}
	}
	return dividers
}

// SendMessageReq send request body
type SendMessageReq struct {
	Content  string                 `json:"content"`
	Type     string                 `json:"type"`
	Metadata map[string]interface{} `json:"metadata"`
}

// SendMessage POST /rooms/:id/messages
func (h *ChatHTTPHandler) SendMessage(c *fiber.Ctx) error {
	var req SendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, errprocess.Wrap(errprocess.KindValidation, "parse body", err))
	}
	msg, err := h.messageUC.Send(c.Context(), c.Params("id"), viewer(c), req.Content,
		domain.MessageType(req.Type), req.Metadata)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": msg})
}

// MarkRead POST /rooms/:id/read
func (h *ChatHTTPHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.messageUC.MarkRoomRead(c.Context(), c.Params("id"), viewer(c), time.Now().UTC()); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"read": true})
}

// Unread GET /unread
func (h *ChatHTTPHandler) Unread(c *fiber.Ctx) error {
	infos, err := h.messageUC.UnreadByRoom(c.Context(), viewer(c))
	if err != nil {
		return fail(c, err)
	}
	total := 0
	for _, info := range infos {
		total += info.UnreadCount
	}
	return c.JSON(fiber.Map{"unread": infos, "total": total})
}

// UploadAttachment POST /rooms/:id/attachments (multipart field "file")
func (h *ChatHTTPHandler) UploadAttachment(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fail(c, errprocess.Wrap(errprocess.KindValidation, "missing file", err))
	}
	f, err := fileHeader.Open()
	if err != nil {
		return fail(c, errprocess.Wrap(errprocess.KindRead, "open upload", err))
	}
	defer f.Close()

	meta, err := h.attachmentUC.Upload(
		c.Context(),
		c.Params("id"),
		viewer(c),
		fileHeader.Filename,
		f,
		fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"attachment": meta})
}

// AttachmentURL GET /attachments/url?object=<name> — a fresh (or cached)
// download URL for an already uploaded attachment.
func (h *ChatHTTPHandler) AttachmentURL(c *fiber.Ctx) error {
	object := c.Query("object")
	if object == "" {
		return fail(c, errprocess.New(errprocess.KindValidation, "object is required"))
	}
	url, err := h.attachmentUC.PresignedURL(c.Context(), object)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}
