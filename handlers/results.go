// handlers/results.go
package handlers

import (
	"coop-results-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupResultRoutes(app *fiber.App, resultService *services.ResultService) {
	// One ingest route per wire generation the client fleet still speaks.
	app.Post("/v1/results", resultService.CreateV1)
	app.Post("/v2/results", resultService.CreateV2)
	app.Post("/v3/results", resultService.CreateV3)

	app.Get("/v3/results/:id", resultService.GetResult)
	app.Get("/v1/scenarios", resultService.GetScenarios)
}
