package controller

import (
	"errors"

	"ai-helpdesk-be/internal/dto"
	"ai-helpdesk-be/internal/pkg/logger"
	"ai-helpdesk-be/internal/pkg/serverutils"
	"ai-helpdesk-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ILogController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
}

type logController struct {
	service   service.ILogService
	jwtSecret string
}

func NewLogController(service service.ILogService, jwtSecret string) ILogController {
	return &logController{service: service, jwtSecret: jwtSecret}
}

func (c *logController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1/logs")
	h.Use(serverutils.AdminMiddleware(c.jwtSecret))
	h.Get("", c.List)
	h.Get(":id", c.Show)
}

func (c *logController) List(ctx *fiber.Ctx) error {
	var req dto.LogListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.List(&req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get logs", res))
}

func (c *logController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Show(ctx.Params("id"))
	if err != nil {
		if errors.Is(err, logger.ErrLogNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Log not found")
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get log", res))
}
