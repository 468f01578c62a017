package controllers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// MainController serves the liveness text and the catch-all 404.
type MainController struct {
	port string
}

func NewMainController(port string) *MainController {
	return &MainController{port: port}
}

func (mc *MainController) HandleIndex(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString(fmt.Sprintf("API is running on port %s", mc.port))
}

// HandleNotFound answers every unmatched route with the same JSON body.
func HandleNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": utils.StatusMessage(fiber.StatusNotFound)})
}

// ErrorHandler keeps fiber's default HTML/plain error pages out of responses.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := utils.StatusMessage(code)
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}
	if code == fiber.StatusNotFound {
		return HandleNotFound(c)
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}
