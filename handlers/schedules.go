// handlers/schedules.go
package handlers

import (
	"coop-results-system/middleware"
	"coop-results-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupScheduleRoutes(app *fiber.App, scheduleService *services.ScheduleService) {
	app.Get("/v3/schedules", scheduleService.ListSchedules)

	// Manual feed refresh is operator-only.
	secured := app.Group("/", middleware.ServiceTokenMiddleware())
	secured.Post("/v3/schedules", scheduleService.RefreshSchedules)
}
