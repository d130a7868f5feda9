// handlers/points_routes.go
package handlers

import (
	"errors"
	"strconv"

	"learning-rewards-engine/middleware"
	"learning-rewards-engine/services"

	"github.com/gofiber/fiber/v2"
)

// SetupPointsRoutes wires the points ledger surface.
func SetupPointsRoutes(app *fiber.App, points *services.PointsService) {
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Get("/user/points", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		balance, err := points.GetUserPoints(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch points",
				"cause": err.Error(),
			})
		}
		return c.JSON(balance)
	})

	secured.Get("/user/points/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		history, err := points.GetHistory(userID, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch history"})
		}
		return c.JSON(history)
	})

	// Award points for a named activity. Other services (course, quiz, login)
	// call this with their own activity type; amount overrides the table when
	// provided.
	secured.Post("/points/award", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			UserID       string `json:"user_id"` // optional: service-to-service awards for another user
			ActivityType string `json:"activity_type"`
			Amount       int64  `json:"amount"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		target := userID
		if req.UserID != "" {
			target = req.UserID
		}

		balance, err := points.Award(target, req.ActivityType, req.Amount)
		if err != nil {
			if errors.Is(err, services.ErrUnknownActivity) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown activity type", "success": false})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "award declined", "success": false})
		}
		return c.JSON(fiber.Map{"success": true, "points": balance})
	})

	secured.Post("/points/spend", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Amount int64  `json:"amount"`
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}

		balance, err := points.Spend(userID, req.Amount, req.Reason)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInsufficientPoints):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "insufficient points", "success": false})
			case errors.Is(err, services.ErrInvalidAmount):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount must be positive", "success": false})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "spend declined", "success": false})
			}
		}
		return c.JSON(fiber.Map{"success": true, "points": balance})
	})

	// Preview a discount without spending. The client follows up with
	// /points/spend using the returned points_used.
	secured.Post("/points/discount/preview", func(c *fiber.Ctx) error {
		var req struct {
			OriginalPrice float64 `json:"original_price"`
			PointsToUse   int64   `json:"points_to_use"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.OriginalPrice <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "original_price must be positive"})
		}
		return c.JSON(points.ApplyDiscount(req.OriginalPrice, req.PointsToUse))
	})

	secured.Get("/points/discount/percentage", func(c *fiber.Ctx) error {
		pts, err := strconv.ParseInt(c.Query("points", "0"), 10, 64)
		if err != nil || pts < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid points parameter"})
		}
		return c.JSON(fiber.Map{"discount_percent": points.CalculateDiscountPercentage(pts)})
	})
}
