package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"match-board-system/models"
	"match-board-system/store"
)

// playerFromContext resolves the gateway user context (set by
// middleware.UserContextMiddleware) to the local Player row.
func playerFromContext(c *fiber.Ctx, st store.Store) (*models.Player, error) {
	externalID, _ := c.Locals("user_id").(string)
	if externalID == "" {
		return nil, errAuthorization("missing user context")
	}
	p, err := st.GetPlayerByExternalID(externalID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errNotFound("no player found for authenticated user")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
