// handlers/resources.go
package handlers

import (
	"coop-results-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupResourceRoutes(app *fiber.App, resourceService *services.ResourceService, versionService *services.VersionService) {
	app.Get("/v1/resources", resourceService.GetResources)
	app.Get("/version", versionService.GetVersion)
}
