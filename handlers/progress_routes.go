// handlers/progress_routes.go
package handlers

import (
	"errors"
	"strconv"
	"strings"

	"learning-rewards-engine/middleware"
	"learning-rewards-engine/models"
	"learning-rewards-engine/services"

	"github.com/gofiber/fiber/v2"
)

// SetupProgressRoutes wires the game submission + progress/reward surface.
// The gateway forwards paths like /api/v1/rewards/s/results -> /s/results.
func SetupProgressRoutes(app *fiber.App, progress *services.ProgressService, rewards *services.RewardService, achievements *services.AchievementService) {
	secured := app.Group("/s", middleware.UserContextMiddleware())

	// Submit a completed game. Returns the earned reward (or null when the
	// score was below the win threshold / the daily cap was reached), the
	// updated progress and any freshly unlocked achievements.
	secured.Post("/results", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			ResultID   string `json:"result_id"` // optional client-generated id for dedup
			GameType   string `json:"game_type"`
			Difficulty string `json:"difficulty"`
			Score      int64  `json:"score"`
			MaxScore   int64  `json:"max_score"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}

		result := &models.GameResult{
			ID:             req.ResultID,
			ExternalUserID: userID,
			GameType:       req.GameType,
			Difficulty:     strings.ToUpper(req.Difficulty),
			Score:          req.Score,
			MaxScore:       req.MaxScore,
		}

		outcome, err := progress.SubmitResult(result)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrDuplicateResult):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "result already submitted"})
			case errors.Is(err, services.ErrInvalidResult):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid game result"})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":  "submission declined",
					"reward": nil,
				})
			}
		}
		return c.JSON(outcome)
	})

	secured.Get("/user/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		prog, err := progress.GetProgress(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch progress",
				"cause": err.Error(),
			})
		}
		return c.JSON(prog)
	})

	secured.Get("/user/progress/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		history, err := progress.GetResultHistory(userID, page, size)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get history",
				"cause": err.Error(),
			})
		}
		return c.JSON(history)
	})

	secured.Get("/user/progress/recent", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		days, _ := strconv.Atoi(c.Query("days", "7"))
		results, err := progress.GetRecentResults(userID, days)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get recent results",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"results": results})
	})

	secured.Get("/user/achievements", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		unlocked, err := achievements.ListUserAchievements(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get achievements",
				"cause": err.Error(),
			})
		}
		return c.JSON(unlocked)
	})

	secured.Get("/user/rewards", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var filter services.RewardFilter
		if limitStr := c.Query("limit"); limitStr != "" {
			l, err := strconv.Atoi(limitStr)
			if err != nil || l <= 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid limit parameter"})
			}
			filter.Limit = &l
		}
		switch strings.ToLower(c.Query("redeemed")) {
		case "true":
			redeemed := true
			filter.Redeemed = &redeemed
		case "false":
			redeemed := false
			filter.Redeemed = &redeemed
			// Default ("all" or not provided) means no filter
		}

		list, err := rewards.ListUserRewards(userID, filter)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch rewards"})
		}
		return c.JSON(list)
	})

	// Poll endpoint for client badge indicators
	secured.Get("/user/rewards/counts", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		total, unredeemed, err := rewards.GetRewardCounts(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to count rewards"})
		}
		return c.JSON(fiber.Map{
			"total_count":      total,
			"unredeemed_count": unredeemed,
		})
	})

	secured.Post("/rewards/:id/redeem", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		rewardID := c.Params("id")

		reward, err := rewards.RedeemReward(userID, rewardID)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrRewardNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "reward not found or not owned by user"})
			case errors.Is(err, services.ErrAlreadyRedeemed):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "reward already redeemed"})
			case errors.Is(err, services.ErrRewardExpired):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reward has expired"})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to redeem reward"})
			}
		}
		return c.JSON(fiber.Map{"message": "reward redeemed successfully", "reward": reward})
	})
}
