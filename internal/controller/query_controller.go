package controller

import (
	"errors"

	"sql-agent-be/internal/dto"
	"sql-agent-be/internal/pkg/serverutils"
	"sql-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IQueryController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
}

type queryController struct {
	service service.IQueryService
	auth    fiber.Handler
}

func NewQueryController(service service.IQueryService, auth fiber.Handler) IQueryController {
	return &queryController{service: service, auth: auth}
}

func (c *queryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/query/v1")
	h.Use(c.auth)
	h.Post("", c.Ask)
}

// Ask answers one natural-language question. An authenticated caller is
// always asked as the user in its token.
func (c *queryController) Ask(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if userID, ok := serverutils.AuthenticatedUser(ctx); ok {
		req.UserId = userID
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.UserContext(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuestion) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer question", res))
}
