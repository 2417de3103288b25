package controller

import (
	"sql-agent-be/internal/pkg/serverutils"
	"sql-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICacheController interface {
	RegisterRoutes(r fiber.Router)
	Stats(ctx *fiber.Ctx) error
}

type cacheController struct {
	service service.IQueryService
}

func NewCacheController(service service.IQueryService) ICacheController {
	return &cacheController{service: service}
}

func (c *cacheController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/cache/v1")
	h.Get("stats", c.Stats)
}

func (c *cacheController) Stats(ctx *fiber.Ctx) error {
	res, err := c.service.CacheStats(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get cache statistics", res))
}
