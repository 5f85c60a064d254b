package controller

import (
	"errors"

	"ai-helpdesk-be/internal/dto"
	"ai-helpdesk-be/internal/pkg/serverutils"
	"ai-helpdesk-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Upsert(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	service   service.IKnowledgeService
	jwtSecret string
}

func NewKnowledgeController(service service.IKnowledgeService, jwtSecret string) IKnowledgeController {
	return &knowledgeController{service: service, jwtSecret: jwtSecret}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router) {
	r.Get("/knowledge/v1/search", c.Search)

	admin := r.Group("/admin/v1/knowledge")
	admin.Use(serverutils.AdminMiddleware(c.jwtSecret))
	admin.Get("", c.List)
	admin.Put("", c.Upsert)
	admin.Delete(":docId", c.Delete)
}

func (c *knowledgeController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchKnowledgeRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Search(ctx.UserContext(), req.Query)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success search knowledge", res))
}

func (c *knowledgeController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext())
	if err != nil {
		return knowledgeError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get knowledge records", res))
}

func (c *knowledgeController) Upsert(ctx *fiber.Ctx) error {
	var req dto.UpsertKnowledgeRecordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Upsert(ctx.UserContext(), &req)
	if err != nil {
		return knowledgeError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success save knowledge record", res))
}

func (c *knowledgeController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.Delete(ctx.UserContext(), ctx.Params("docId")); err != nil {
		return knowledgeError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete knowledge record", nil))
}

func knowledgeError(err error) error {
	switch {
	case errors.Is(err, service.ErrKnowledgeStoreUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, "Knowledge store is not configured")
	case errors.Is(err, service.ErrKnowledgeRecordNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Knowledge record not found")
	}
	return err
}
