package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/fitmania/gymdesk/app/controllers"
	"github.com/fitmania/gymdesk/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1", middleware.RequireAPISessionAuth)

	v1.Get("/dashboard", controllers.HandleDashboard)

	members := v1.Group("/members")
	members.Get("/", controllers.HandleListMembers)
	members.Post("/", controllers.HandleCreateMember)
	members.Get("/export", controllers.HandleExportMembers)
	members.Get("/:uuid", controllers.HandleGetMember)
	members.Put("/:uuid", controllers.HandleUpdateMember)
	members.Delete("/:uuid", controllers.HandleDeleteMember)

	members.Post("/:uuid/payments", controllers.HandleCreatePayment)

	members.Get("/:uuid/card.pdf", controllers.HandleMemberCard)
	members.Post("/:uuid/card/share", controllers.HandleMemberCardShare)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
