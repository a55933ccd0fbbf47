package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/goliatone/go-imagelite/auth"
	"github.com/goliatone/go-imagelite/config"
	"github.com/goliatone/go-imagelite/images"
	"github.com/goliatone/go-imagelite/middleware/jwtware"
)

// Dependencies are the services the HTTP layer delegates to.
type Dependencies struct {
	Users  *auth.UserService
	Tokens *auth.TokenService
	Images *images.Service
	Logger *zap.Logger
}

// New builds the fiber application. Middleware order matters: the request
// logger wraps everything so recovered panics are logged as 500s, then
// CORS answers preflights and the gate runs before any route handler.
func New(cfg config.Config, deps Dependencies) *fiber.App {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "imagelite",
		BodyLimit:             cfg.MaxUploadBytes,
		ErrorHandler:          ErrorHandler(logger),
		DisableStartupMessage: true,
	})

	app.Use(RequestLogger(logger))
	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.LogLevel == "debug"}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "Location",
	}))

	app.Use(jwtware.New(jwtware.Config{
		TokenVerifier:    deps.Tokens,
		IdentityResolver: deps.Users,
		ContextEnricher:  auth.ContextEnricher,
		AuthScheme:       cfg.AuthScheme,
		TokenLookup:      cfg.TokenLookup,
		Logger:           auth.NewZapLogger(logger.Named("gate")),
	}))

	v1 := app.Group("/v1")

	RegisterUserRoutes(v1, NewUsersController(deps.Users))
	RegisterImageRoutes(v1, NewImagesController(deps.Images))

	return app
}
