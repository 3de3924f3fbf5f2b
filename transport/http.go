package transport

import (
	goerrors "errors"
	"log/slog"
	"strings"

	"dm-lab/domain"
	"dm-lab/errors"
	"dm-lab/observability"
	"dm-lab/projection"
	"dm-lab/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = validator.New()

// ApiResponse is the envelope for every mutating endpoint.
type ApiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SendOtpRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Purpose string `json:"purpose" validate:"required"`
}

type VerifyOtpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
	Purpose  string `json:"purpose" validate:"required"`
	Username string `json:"username"`
}

type Router struct {
	log           *slog.Logger
	messages      services.IMessageService
	auth          services.IAuthService
	conversations *projection.ConversationIndex
	tracker       *observability.HealthTracker
}

func NewRouter(log *slog.Logger, messages services.IMessageService,
	auth services.IAuthService, conversations *projection.ConversationIndex,
	tracker *observability.HealthTracker) *Router {
	return &Router{
		log:           log,
		messages:      messages,
		auth:          auth,
		conversations: conversations,
		tracker:       tracker,
	}
}

func (r *Router) Register(app *fiber.App, gateway *WsGateway) {
	app.Get("/health", r.health)

	app.Post("/api/auth/send-otp", r.sendOtp)
	app.Post("/api/auth/verify-otp", r.verifyOtp)

	app.Get("/api/messages/conversation", r.getConversation)
	app.Get("/api/messages/unread", r.getUnread)
	app.Get("/api/messages/unread/count", r.getUnreadCount)
	app.Put("/api/messages/conversation/read", r.markConversationRead)
	app.Put("/api/messages/:id/read", r.markMessageRead)
	app.Delete("/api/messages/:id", r.deleteMessage)
	app.Get("/api/messages/conversations", r.getConversations)

	app.Use("/ws", gateway.Upgrade)
	app.Get("/ws", gateway.Handler())
}

func (r *Router) health(c *fiber.Ctx) error {
	return c.JSON(r.tracker.Latest())
}

func (r *Router) sendOtp(c *fiber.Ctx) error {
	var req SendOtpRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "unparseable body")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}
	purpose, err := domain.ParsePurpose(strings.ToUpper(strings.TrimSpace(req.Purpose)))
	if err != nil {
		return badRequest(c, err.Error())
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := r.auth.RequestCode(email, purpose); err != nil {
		return mapError(c, err)
	}
	return c.JSON(ApiResponse{Success: true, Message: "Code sent to email"})
}

func (r *Router) verifyOtp(c *fiber.Ctx) error {
	var req VerifyOtpRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "unparseable body")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}
	purpose, err := domain.ParsePurpose(strings.ToUpper(strings.TrimSpace(req.Purpose)))
	if err != nil {
		return badRequest(c, err.Error())
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if purpose == domain.PurposeRegister {
		user, err := r.auth.Register(email, req.Code, req.Username)
		if err != nil {
			return mapError(c, err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Registration successful",
			"user":    user,
		})
	}

	result, err := r.auth.Login(email, req.Code)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"user":    result.User,
		"token":   result.Token,
	})
}

func (r *Router) getConversation(c *fiber.Ctx) error {
	userA := c.Query("userId1")
	userB := c.Query("userId2")
	if userA == "" || userB == "" {
		return badRequest(c, "userId1 and userId2 are required")
	}
	page := c.QueryInt("page", 0)
	size := c.QueryInt("size", 50)
	messages, err := r.messages.GetConversation(userA, userB, page, size)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(toMessageResponses(messages))
}

func (r *Router) getUnread(c *fiber.Ctx) error {
	receiverID := c.Query("receiverId")
	if receiverID == "" {
		return badRequest(c, "receiverId is required")
	}
	messages, err := r.messages.GetUnreadMessages(receiverID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(toMessageResponses(messages))
}

func (r *Router) getUnreadCount(c *fiber.Ctx) error {
	receiverID := c.Query("receiverId")
	senderID := c.Query("senderId")
	if receiverID == "" || senderID == "" {
		return badRequest(c, "receiverId and senderId are required")
	}
	count, err := r.messages.GetUnreadCount(receiverID, senderID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

func (r *Router) markMessageRead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid message id")
	}
	_, outcome, err := r.messages.MarkRead(id)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(ApiResponse{Success: true, Message: outcome.String()})
}

func (r *Router) markConversationRead(c *fiber.Ctx) error {
	receiverID := c.Query("receiverId")
	senderID := c.Query("senderId")
	if receiverID == "" || senderID == "" {
		return badRequest(c, "receiverId and senderId are required")
	}
	count, err := r.messages.MarkConversationRead(receiverID, senderID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "updated": count})
}

func (r *Router) deleteMessage(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid message id")
	}
	outcome, err := r.messages.SoftDelete(id)
	if err != nil {
		return mapError(c, err)
	}
	if outcome == domain.OutcomeNotFound {
		return c.Status(fiber.StatusNotFound).
			JSON(ApiResponse{Success: false, Message: errors.ErrMessageNotFound.Error()})
	}
	return c.JSON(ApiResponse{Success: true, Message: outcome.String()})
}

func (r *Router) getConversations(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return badRequest(c, "userId is required")
	}
	conversations, err := r.conversations.ForUser(userID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(toConversationResponses(conversations))
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).
		JSON(ApiResponse{Success: false, Message: message})
}

// mapError translates sentinel errors into HTTP statuses at the edge; the
// inner layers never know about status codes.
func mapError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case goerrors.Is(err, errors.ErrUserAlreadyExists),
		goerrors.Is(err, errors.ErrUserNotRegistered),
		goerrors.Is(err, errors.ErrInvalidCode),
		goerrors.Is(err, errors.ErrEmptyContent),
		goerrors.Is(err, errors.ErrSelfAddressed),
		goerrors.Is(err, errors.ErrUnknownPurpose),
		goerrors.Is(err, errors.ErrUnknownStatus):
		status = fiber.StatusBadRequest
	case goerrors.Is(err, errors.ErrTooManyCodes):
		status = fiber.StatusTooManyRequests
	case goerrors.Is(err, errors.ErrUserNotFound),
		goerrors.Is(err, errors.ErrMessageNotFound):
		status = fiber.StatusNotFound
	}
	return c.Status(status).JSON(ApiResponse{Success: false, Message: err.Error()})
}
