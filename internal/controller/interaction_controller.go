package controller

import (
	"errors"

	"ai-helpdesk-be/internal/dto"
	"ai-helpdesk-be/internal/pkg/serverutils"
	"ai-helpdesk-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IInteractionController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
}

type interactionController struct {
	service   service.IInteractionService
	jwtSecret string
}

func NewInteractionController(service service.IInteractionService, jwtSecret string) IInteractionController {
	return &interactionController{service: service, jwtSecret: jwtSecret}
}

func (c *interactionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1/interactions")
	h.Use(serverutils.AdminMiddleware(c.jwtSecret))
	h.Get("", c.List)
}

func (c *interactionController) List(ctx *fiber.Ctx) error {
	var req dto.InteractionListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), &req)
	if err != nil {
		if errors.Is(err, service.ErrKnowledgeStoreUnavailable) {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Interaction audit needs a database")
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get interactions", res))
}
