package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/dbreview/internal/services"
	"github.com/localnerve/dbreview/internal/utils"
)

// Escalator runs one escalation dispatch
type Escalator interface {
	DispatchEscalations(ctx context.Context) ([]string, error)
}

// NotifyHandler triggers escalation dispatch
type NotifyHandler struct {
	Dispatcher Escalator
}

// NotifyResponse is the body of POST /notify
type NotifyResponse struct {
	Success              bool     `json:"success"`
	RecipientsWithErrors []string `json:"recipients_with_errors,omitempty"`
}

// Notify handles POST /notify
// @Summary Notify managers of HIGH classification databases
// @Description Sends one review request per HIGH database to the owner's manager.
// @Description Recipients that could not be notified are listed; unresolved references appear as owner:<id> or manager:<id>.
// @Tags Notify
// @Produce json
// @Success 200 {object} NotifyResponse
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /notify [post]
func (h *NotifyHandler) Notify(c *fiber.Ctx) error {
	failed, err := h.Dispatcher.DispatchEscalations(c.UserContext())
	if err != nil {
		if errors.Is(err, services.ErrDispatchInProgress) {
			return utils.ErrorResponse(c, err.Error(), fiber.StatusConflict, "notify.in_progress")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "notify")
	}

	return c.Status(fiber.StatusOK).JSON(NotifyResponse{
		Success:              len(failed) == 0,
		RecipientsWithErrors: failed,
	})
}
