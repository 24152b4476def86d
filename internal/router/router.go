package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"authgate/internal/config"
	apperrors "authgate/internal/errors"
	"authgate/internal/handler"
	"authgate/internal/middleware"
	"authgate/internal/model"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	gate *middleware.Gate,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Debug)

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// Identity-aware but never rejecting: anonymous callers get a bare
	// status, authenticated ones their identity echoed back.
	api.GET("/status", func(c echo.Context) error {
		if user, ok := middleware.CurrentUser(c); ok {
			return c.JSON(http.StatusOK, echo.Map{"authenticated": true, "user": user})
		}
		return c.JSON(http.StatusOK, echo.Map{"authenticated": false})
	}, gate.OptionalAuth())

	// Authenticated routes
	authed := api.Group("", gate.RequireAuth())
	authed.GET("/auth/me", authHandler.Me)
	authed.PUT("/auth/update-password", authHandler.UpdatePassword)
	authed.POST("/auth/logout", authHandler.Logout)

	// Administrative user management; the role gate composes after the auth
	// gate within the same group.
	users := authed.Group("/users")
	users.GET("", userHandler.ListUsers, gate.RequireRole(model.RoleAdmin))
	users.POST("", userHandler.CreateUser, gate.RequireRole(model.RoleAdmin))
	users.GET("/:id", userHandler.GetUser, gate.RequireRole(model.RoleAdmin, model.RoleModerator))
	users.PUT("/:id", userHandler.UpdateUser, gate.RequireRole(model.RoleAdmin))
	users.DELETE("/:id", userHandler.DeleteUser, gate.RequireRole(model.RoleAdmin))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// NewHTTPErrorHandler renders every error as the uniform {"error","code"}
// envelope. Unexpected errors are logged and reported as a bare 500; their
// details never reach the client unless debug mode is on.
func NewHTTPErrorHandler(debug bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := apperrors.ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		}

		if httpErr, ok := err.(*echo.HTTPError); ok {
			status = httpErr.Code
			switch msg := httpErr.Message.(type) {
			case apperrors.ErrorResponse:
				body = msg
			case string:
				body = apperrors.ErrorResponse{Error: msg, Code: codeForStatus(status)}
			default:
				body = apperrors.ErrorResponse{Error: http.StatusText(status), Code: codeForStatus(status)}
			}
		} else if debug {
			body.Error = err.Error()
		}

		if status >= http.StatusInternalServerError {
			c.Logger().Error(err)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_ERROR"
	case http.StatusUnauthorized:
		return "NOT_AUTHENTICATED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		return "INTERNAL_ERROR"
	}
}
