package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-imagelite/auth"
)

type UsersControllerRoutes struct {
	Register     string
	Authenticate string
}

type UsersController struct {
	Users  *auth.UserService
	Routes *UsersControllerRoutes
}

func NewUsersController(users *auth.UserService) *UsersController {
	return &UsersController{
		Users: users,
		Routes: &UsersControllerRoutes{
			Register:     "/users",
			Authenticate: "/users/auth",
		},
	}
}

func RegisterUserRoutes(app fiber.Router, controller *UsersController) {
	app.Post(controller.Routes.Register, controller.Register)
	app.Post(controller.Routes.Authenticate, controller.Authenticate)
}

// CredentialsPayload is the authentication request body
type CredentialsPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (u *UsersController) Register(c *fiber.Ctx) error {
	payload := new(auth.RegisterUserMessage)
	if err := c.BodyParser(payload); err != nil {
		return auth.NewError(auth.ErrInvalidInput, "malformed request body", err)
	}

	if _, err := u.Users.Register(c.UserContext(), payload); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusCreated)
}

func (u *UsersController) Authenticate(c *fiber.Ctx) error {
	payload := new(CredentialsPayload)
	if err := c.BodyParser(payload); err != nil {
		return auth.NewError(auth.ErrInvalidInput, "malformed request body", err)
	}

	token, err := u.Users.Authenticate(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(token)
}
