package engine

import (
	"github.com/gofiber/fiber/v2"

	"trigger-settings/internal/metadata"
)

// TriggerHandler handles the webhook trigger settings endpoints.
type TriggerHandler struct {
	service *TriggerService
}

func NewTriggerHandler(s *TriggerService) *TriggerHandler {
	return &TriggerHandler{service: s}
}

func (h *TriggerHandler) CreateWorkflow(c *fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidPayload()
	}
	wf, err := h.service.CreateWorkflow(c.UserContext(), CurrentUser(c), body.Name)
	if err != nil {
		return respondError(err)
	}
	return c.Status(201).JSON(fiber.Map{"data": wf})
}

func (h *TriggerHandler) GetTrigger(c *fiber.Ctx) error {
	view, err := h.service.GetTrigger(c.UserContext(), CurrentUser(c), c.Params("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(fiber.Map{"data": view})
}

func (h *TriggerHandler) UpdateName(c *fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidPayload()
	}
	view, err := h.service.RenameTrigger(c.UserContext(), CurrentUser(c), c.Params("id"), body.Name)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(fiber.Map{"data": view})
}

func (h *TriggerHandler) UpdateHTTPMethod(c *fiber.Ctx) error {
	var body struct {
		HTTPMethod string `json:"http_method"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidPayload()
	}
	view, err := h.service.ChangeHTTPMethod(c.UserContext(), CurrentUser(c), c.Params("id"), body.HTTPMethod)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(fiber.Map{"data": view})
}

// UpdateExpectedBody takes the editor text verbatim; it is not JSON-decoded
// here because it may contain bare {{variables}}.
func (h *TriggerHandler) UpdateExpectedBody(c *fiber.Ctx) error {
	var body struct {
		Raw string `json:"raw"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidPayload()
	}
	view, err := h.service.ChangeExpectedBody(c.UserContext(), CurrentUser(c), c.Params("id"), body.Raw)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(fiber.Map{"data": view})
}

func (h *TriggerHandler) UpdateAuthentication(c *fiber.Ctx) error {
	var body struct {
		Authentication *string `json:"authentication"`
	}
	if err := c.BodyParser(&body); err != nil {
		return invalidPayload()
	}
	auth := ""
	if body.Authentication != nil {
		auth = *body.Authentication
	}
	view, err := h.service.ChangeAuthentication(c.UserContext(), CurrentUser(c), c.Params("id"), auth)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(fiber.Map{"data": view})
}

func (h *TriggerHandler) Preview(c *fiber.Ctx) error {
	var body struct {
		Context map[string]any `json:"context"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return invalidPayload()
		}
	}
	resolved, err := h.service.Preview(c.UserContext(), CurrentUser(c), c.Params("id"), body.Context)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(fiber.Map{"data": resolved})
}

func (h *TriggerHandler) Activate(c *fiber.Ctx) error {
	wf, err := h.service.Activate(c.UserContext(), CurrentUser(c), c.Params("id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(fiber.Map{"data": wf})
}

// SSOHandler handles the OIDC settings endpoints.
type SSOHandler struct {
	service *SSOService
}

func NewSSOHandler(s *SSOService) *SSOHandler {
	return &SSOHandler{service: s}
}

func (h *SSOHandler) GetOIDCURLs(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.service.URLs()})
}

func (h *SSOHandler) ListIdentityProviders(c *fiber.Ctx) error {
	providers, err := h.service.List(c.UserContext(), CurrentUser(c))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(fiber.Map{"data": providers})
}

func (h *SSOHandler) CreateOIDCIdentityProvider(c *fiber.Ctx) error {
	var creds metadata.OIDCCredentials
	if err := c.BodyParser(&creds); err != nil {
		return invalidPayload()
	}
	p, err := h.service.CreateOIDC(c.UserContext(), CurrentUser(c), creds)
	if err != nil {
		return respondError(err)
	}
	return c.Status(201).JSON(fiber.Map{"data": p})
}

func (h *SSOHandler) DeleteIdentityProvider(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), CurrentUser(c), c.Params("id")); err != nil {
		return respondError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

func invalidPayload() error {
	return NewAppError("INVALID_PAYLOAD", 400, "Invalid request body")
}

// respondError converts editor errors into *AppError. Anything else is left
// for the fiber error handler to report as an internal error.
func respondError(err error) error {
	if appErr := AsAppError(err); appErr != nil {
		return appErr
	}
	return err
}
