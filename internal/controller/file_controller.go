package controller

import (
	"errors"

	"ai-helpdesk-be/internal/pkg/serverutils"
	"ai-helpdesk-be/internal/service"
	"ai-helpdesk-be/pkg/knowledgefiles"

	"github.com/gofiber/fiber/v2"
)

type IFileController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type fileController struct {
	service   service.IFileService
	jwtSecret string
}

func NewFileController(service service.IFileService, jwtSecret string) IFileController {
	return &fileController{service: service, jwtSecret: jwtSecret}
}

func (c *fileController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1/files")
	h.Use(serverutils.AdminMiddleware(c.jwtSecret))
	h.Get("", c.List)
	h.Post("", c.Upload)
	h.Delete(":id", c.Delete)
}

func (c *fileController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext())
	if err != nil {
		return fileError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get files", res))
}

func (c *fileController) Upload(ctx *fiber.Ctx) error {
	header, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Form field 'file' is required")
	}
	f, err := header.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := c.service.Upload(ctx.UserContext(), header.Filename, f)
	if err != nil {
		return fileError(err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success upload file", res))
}

func (c *fileController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return fileError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete file", nil))
}

func fileError(err error) error {
	var apiErr *knowledgefiles.APIError
	switch {
	case errors.Is(err, knowledgefiles.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "File not found")
	case errors.Is(err, knowledgefiles.ErrUnauthorized):
		return fiber.NewError(fiber.StatusBadGateway, "File service rejected the configured credentials")
	case errors.As(err, &apiErr):
		return fiber.NewError(fiber.StatusBadGateway, apiErr.Message)
	}
	return err
}
