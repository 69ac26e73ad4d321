package engine

import "github.com/gofiber/fiber/v2"

// RegisterTriggerRoutes adds the workflow trigger settings routes.
func RegisterTriggerRoutes(app *fiber.App, h *TriggerHandler, middleware ...fiber.Handler) {
	wf := app.Group("/api/workflows", middleware...)
	wf.Post("/", h.CreateWorkflow)
	wf.Post("/:id/activate", h.Activate)

	trigger := wf.Group("/:id/trigger")
	trigger.Get("/", h.GetTrigger)
	trigger.Put("/name", h.UpdateName)
	trigger.Put("/http-method", h.UpdateHTTPMethod)
	trigger.Put("/expected-body", h.UpdateExpectedBody)
	trigger.Put("/authentication", h.UpdateAuthentication)
	trigger.Post("/preview", h.Preview)
}

// RegisterSSORoutes adds the SSO settings routes.
func RegisterSSORoutes(app *fiber.App, h *SSOHandler, middleware ...fiber.Handler) {
	sso := app.Group("/api/settings/sso", middleware...)
	sso.Get("/oidc/urls", h.GetOIDCURLs)
	sso.Get("/identity-providers", h.ListIdentityProviders)
	sso.Post("/identity-providers/oidc", h.CreateOIDCIdentityProvider)
	sso.Delete("/identity-providers/:id", h.DeleteIdentityProvider)
}
