package controller

import (
	"errors"

	"ai-helpdesk-be/internal/dto"
	"ai-helpdesk-be/internal/pkg/serverutils"
	"ai-helpdesk-be/internal/repository/contract"
	"ai-helpdesk-be/internal/service"
	"ai-helpdesk-be/pkg/assistant"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// MessageAssistantUnavailable is what users see for any generation failure.
const MessageAssistantUnavailable = "cannot reach the assistant core"

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	Retry(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("/ask", c.Ask)
	h.Post("/sessions", c.CreateSession)
	h.Get("/sessions/:id", c.History)
	h.Delete("/sessions/:id", c.DeleteSession)
	h.Post("/sessions/:id/messages", c.SendMessage)
	h.Post("/sessions/:id/messages/:messageId/retry", c.Retry)
}

func (c *chatController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.UserContext(), &req)
	if err != nil {
		return answerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success answer question", res))
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	res, err := c.service.CreateSession(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	sessionId, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.History(ctx.UserContext(), sessionId)
	if err != nil {
		return answerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	sessionId, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.UserContext(), sessionId, &req)
	if err != nil {
		return answerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *chatController) Retry(ctx *fiber.Ctx) error {
	sessionId, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	messageId, err := uuidParam(ctx, "messageId")
	if err != nil {
		return err
	}

	res, err := c.service.Retry(ctx.UserContext(), sessionId, messageId)
	if err != nil {
		return answerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success retry message", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	sessionId, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.service.DeleteSession(ctx.UserContext(), sessionId); err != nil {
		return answerError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete session", nil))
}

// answerError maps chat failures to the envelope. Generation failures carry the failed message id
// so the client can offer a retry.
func answerError(ctx *fiber.Ctx, err error) error {
	data := dto.FailedMessageData{}
	var failed *service.MessageFailedError
	if errors.As(err, &failed) {
		id := failed.MessageId
		data.MessageId = &id
	}

	switch {
	case errors.Is(err, assistant.ErrEmptyQuestion):
		return fiber.NewError(fiber.StatusBadRequest, "Question is empty")
	case errors.Is(err, contract.ErrConversationNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Session not found or expired")
	case errors.Is(err, service.ErrMessageNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Message not found")
	case errors.Is(err, service.ErrMessageNotRetryable):
		return fiber.NewError(fiber.StatusConflict, "Only failed messages can be retried")
	case errors.Is(err, assistant.ErrCancelled):
		data.Retryable = true
		data.Kind = "cancelled"
		return ctx.Status(fiber.StatusRequestTimeout).
			JSON(serverutils.ErrorResponseWithData(fiber.StatusRequestTimeout, "Request cancelled", data))
	case errors.Is(err, assistant.ErrGeneration), errors.Is(err, assistant.ErrSchemaViolation):
		data.Retryable = true
		data.Kind = "generation"
		if errors.Is(err, assistant.ErrSchemaViolation) {
			data.Kind = "schema_violation"
		}
		return ctx.Status(fiber.StatusBadGateway).
			JSON(serverutils.ErrorResponseWithData(fiber.StatusBadGateway, MessageAssistantUnavailable, data))
	}
	return err
}

func uuidParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}
