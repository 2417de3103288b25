package controller

import (
	"sql-agent-be/internal/pkg/serverutils"
	"sql-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const maxHistoryLimit = 100

type IHistoryController interface {
	RegisterRoutes(r fiber.Router)
	UserHistory(ctx *fiber.Ctx) error
	SessionContext(ctx *fiber.Ctx) error
	Statistics(ctx *fiber.Ctx) error
}

type historyController struct {
	service service.IHistoryService
	auth    fiber.Handler
}

func NewHistoryController(service service.IHistoryService, auth fiber.Handler) IHistoryController {
	return &historyController{service: service, auth: auth}
}

func (c *historyController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/history/v1")
	h.Use(c.auth)
	h.Get("users/:userId", c.UserHistory)
	h.Get("users/:userId/sessions/:sessionId", c.SessionContext)
	h.Get("users/:userId/stats", c.Statistics)
}

// owner resolves :userId, refusing another user's history when the caller
// is authenticated.
func (c *historyController) owner(ctx *fiber.Ctx) (string, error) {
	userId := ctx.Params("userId")
	if caller, ok := serverutils.AuthenticatedUser(ctx); ok && caller != userId {
		return "", fiber.NewError(fiber.StatusForbidden, "Access to another user's history is not allowed")
	}
	return userId, nil
}

func (c *historyController) UserHistory(ctx *fiber.Ctx) error {
	userId, err := c.owner(ctx)
	if err != nil {
		return err
	}

	limit := ctx.QueryInt("limit", service.DefaultHistoryLimit)
	if limit <= 0 || limit > maxHistoryLimit {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 100")
	}

	res, err := c.service.UserHistory(ctx.UserContext(), userId, limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get user history", res))
}

func (c *historyController) SessionContext(ctx *fiber.Ctx) error {
	userId, err := c.owner(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.SessionContext(ctx.UserContext(), userId, ctx.Params("sessionId"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session context", res))
}

func (c *historyController) Statistics(ctx *fiber.Ctx) error {
	userId, err := c.owner(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Statistics(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history statistics", res))
}
