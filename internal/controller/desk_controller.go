package controller

import (
	"fmt"

	"ai-helpdesk-be/internal/pkg/logger"
	"ai-helpdesk-be/internal/pkg/serverutils"
	internalWS "ai-helpdesk-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IDeskController interface {
	RegisterRoutes(r fiber.Router)
}

type deskController struct {
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewDeskController(hub *internalWS.Hub, jwtSecret string, log logger.ILogger) IDeskController {
	return &deskController{hub: hub, jwtSecret: jwtSecret, logger: log}
}

func (c *deskController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/desk/v1")
	// Browsers pass the token as ?token= on the handshake.
	h.Use(serverutils.AdminMiddleware(c.jwtSecret))
	h.Get("/ws", upgradeRequired, websocket.New(c.serve))
}

func upgradeRequired(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	return ctx.Next()
}

func (c *deskController) serve(conn *websocket.Conn) {
	agentID := fmt.Sprint(conn.Locals("user_id"))
	c.logger.Debug("DeskController", "Desk feed handshake accepted", map[string]interface{}{"agent_id": agentID})
	internalWS.ServeWs(c.hub, conn, agentID)
}
