package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amicale/member-portal/internal/response"
	"github.com/amicale/member-portal/internal/service"
)

// NewsletterSubscriber is the slice of the newsletter service the handler
// needs.
type NewsletterSubscriber interface {
	Subscribe(ctx context.Context, email string) error
}

type NewsletterHandler struct {
	svc NewsletterSubscriber
}

func NewNewsletterHandler(svc NewsletterSubscriber) *NewsletterHandler {
	if svc == nil {
		panic("nil service passed to NewNewsletterHandler")
	}
	return &NewsletterHandler{svc: svc}
}

type subscribeReq struct {
	Email string `json:"email"`
}

// Subscribe handles POST /api/newsletter/subscribe.  The error message for a
// missing address is kept in French to match the public form.
func (h *NewsletterHandler) Subscribe(c echo.Context) error {
	var req subscribeReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.Subscribe(ctx, req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailRequired):
			return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, err.Error())
		case errors.Is(err, service.ErrEmailInvalid):
			return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "adresse email invalide")
		}
		return response.Internal(c, err)
	}
	return response.OK(c, map[string]bool{"subscribed": true})
}
