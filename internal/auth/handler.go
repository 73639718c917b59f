package auth

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes a development token endpoint.
type Handler struct {
	issuer *Issuer
}

func NewHandler(issuer *Issuer) *Handler {
	return &Handler{issuer: issuer}
}

type tokenRequest struct {
	Subject string `json:"subject"`
}

// Token issues an access token for the requested subject. Only mounted outside production.
func (h *Handler) Token(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	token, exp, err := h.issuer.Issue(strings.TrimSpace(req.Subject))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"access_token": token,
		"expires_at":   exp,
		"subject":      req.Subject,
	})
}
