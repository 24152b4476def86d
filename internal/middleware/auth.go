package middleware

import (
	"errors"
	"fmt"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"authgate/internal/auth"
	apperrors "authgate/internal/errors"
	"authgate/internal/model"
	"authgate/internal/repository"
)

// ContextKey is where the gate attaches the authenticated principal.
const ContextKey = "auth_user"

// errGateInternal marks store or repository failures inside the gate so they
// surface as 500s instead of being mistaken for bad credentials.
var errGateInternal = errors.New("auth gate internal error")

// Authenticated is the principal attached to the request context after the
// gate ran: the user as currently stored, not as claimed by the token, plus
// the verified claims (the logout handler needs the jti and expiry).
type Authenticated struct {
	User   *model.User
	Claims *auth.Claims
}

// Gate builds the per-request enforcement middleware. Every verified token is
// checked against the revocation set and its subject re-resolved from the
// repository, so authorization decisions always reflect current store state.
type Gate struct {
	jwtService *auth.JWTService
	tokens     auth.TokenStoreInterface
	users      repository.UserRepository
}

// NewGate wires the gate to its collaborators.
func NewGate(jwtService *auth.JWTService, tokens auth.TokenStoreInterface, users repository.UserRepository) *Gate {
	return &Gate{jwtService: jwtService, tokens: tokens, users: users}
}

// RequireAuth rejects requests without a valid, unrevoked token belonging to
// an existing, active user. On success the principal is attached under
// ContextKey.
func (g *Gate) RequireAuth() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:     ContextKey,
		TokenLookup:    "header:Authorization:Bearer ",
		ParseTokenFunc: g.parseToken,
		ErrorHandler: func(c echo.Context, err error) error {
			httpErr := apperrors.MapErrorToHTTP(classifyGateError(err))
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		},
	})
}

// OptionalAuth runs the same pipeline as RequireAuth but swallows every
// failure; the request proceeds anonymous and handlers adapt to the missing
// principal.
func (g *Gate) OptionalAuth() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:     ContextKey,
		TokenLookup:    "header:Authorization:Bearer ",
		ParseTokenFunc: g.parseToken,
		ErrorHandler: func(c echo.Context, err error) error {
			return nil
		},
		ContinueOnIgnoredError: true,
	})
}

// RequireRole allows only principals whose role is in the given set. It is a
// method on the Gate rather than a free function so the upstream RequireAuth
// dependency is explicit in the wiring. Running it without an attached
// principal is a configuration bug and fails as a 500, not a 401.
//
// Unknown role names are rejected at construction.
func (g *Gate) RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		if !model.ValidRole(r) {
			panic(fmt.Sprintf("middleware: unknown role %q in RequireRole", r))
		}
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				c.Logger().Error("RequireRole invoked without RequireAuth upstream")
				httpErr := apperrors.MapErrorToHTTP(apperrors.ErrMissingUser)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			if _, ok := allowed[user.Role]; !ok {
				httpErr := apperrors.MapErrorToHTTP(apperrors.ErrForbidden)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			return next(c)
		}
	}
}

// parseToken is the verification pipeline shared by both gate modes:
// signature/expiry check, revocation set, subject re-resolution, account
// status. The returned principal is what echo-jwt stores under ContextKey.
func (g *Gate) parseToken(c echo.Context, tokenString string) (interface{}, error) {
	claims, err := g.jwtService.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	ctx := c.Request().Context()

	revoked, err := g.tokens.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errGateInternal, err)
	}
	if revoked {
		return nil, apperrors.ErrTokenRevoked
	}

	watermark, ok, err := g.tokens.TokensRevokedBefore(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errGateInternal, err)
	}
	if ok && claims.IssuedAt != nil && claims.IssuedAt.Time.Before(watermark) {
		return nil, apperrors.ErrTokenRevoked
	}

	user, err := g.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserGone
		}
		return nil, fmt.Errorf("%w: %v", errGateInternal, err)
	}

	if !user.Active {
		return nil, apperrors.ErrAccountDeactivated
	}

	return &Authenticated{User: user, Claims: claims}, nil
}

// CurrentUser returns the authenticated user attached by RequireAuth, if any.
func CurrentUser(c echo.Context) (*model.User, bool) {
	principal, ok := c.Get(ContextKey).(*Authenticated)
	if !ok || principal == nil || principal.User == nil {
		return nil, false
	}
	return principal.User, true
}

// CurrentClaims returns the verified claims attached by RequireAuth, if any.
func CurrentClaims(c echo.Context) (*auth.Claims, bool) {
	principal, ok := c.Get(ContextKey).(*Authenticated)
	if !ok || principal == nil || principal.Claims == nil {
		return nil, false
	}
	return principal.Claims, true
}

// classifyGateError maps pipeline errors to the operational taxonomy.
// Operational errors pass through; gate-internal failures keep their 500
// mapping; anything else came from token extraction and reads as missing
// credentials.
func classifyGateError(err error) error {
	switch {
	case err == nil:
		return apperrors.ErrNotAuthenticated
	case errors.Is(err, apperrors.ErrTokenExpired),
		errors.Is(err, apperrors.ErrInvalidToken),
		errors.Is(err, apperrors.ErrTokenRevoked),
		errors.Is(err, apperrors.ErrUserGone),
		errors.Is(err, apperrors.ErrAccountDeactivated):
		return err
	case errors.Is(err, errGateInternal):
		return err
	default:
		return apperrors.ErrNotAuthenticated
	}
}
