package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shutsugan-server/internal/authz"
	"shutsugan-server/internal/model"
	"shutsugan-server/pkg/database"
	"shutsugan-server/pkg/jwtutil"
	"shutsugan-server/pkg/logger"
	"shutsugan-server/prometheus"
)

// StaffUser is the acting staff account attached to admin requests.
type StaffUser struct {
	ID       uint
	Username string
	Email    string
	Role     authz.Role
}

// StaffMiddleware guards the admin surface: the token must resolve to an
// existing account whose role is teacher/admin/super_admin and whose status
// is still active. The account is reloaded from the database on every
// request so role and status edits take effect immediately.
func StaffMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "not authenticated"})
		}

		claims, err := jwtutil.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid or expired token"})
		}

		var user model.User
		if result := database.GetDB().First(&user, claims.UserID); result.Error != nil {
			prometheus.RecordAuthError("user_not_found")
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "account no longer exists"})
		}

		role := authz.NormalizeRole(user.Role)
		if !role.Staff() {
			log.Warn("Non-staff account on admin surface",
				zap.Uint("user_id", user.ID),
				zap.String("role", string(role)))
			prometheus.RecordAuthError("wrong_role")
			return c.JSON(http.StatusForbidden, echo.Map{"message": "staff access only"})
		}
		if user.Status != authz.StatusActive {
			prometheus.RecordAuthError("account_disabled")
			return c.JSON(http.StatusForbidden, echo.Map{"message": "account disabled"})
		}

		c.Set("staff", &StaffUser{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     role,
		})
		return next(c)
	}
}

// RequireElevated restricts a route to admin and super_admin accounts.
func RequireElevated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		staff, ok := Staff(c)
		if !ok || !staff.Role.Elevated() {
			prometheus.RecordAuthError("wrong_role")
			return c.JSON(http.StatusForbidden, echo.Map{"message": "administrator access only"})
		}
		return next(c)
	}
}

// Staff returns the staff account stored by StaffMiddleware.
func Staff(c echo.Context) (*StaffUser, bool) {
	staff, ok := c.Get("staff").(*StaffUser)
	return staff, ok
}
