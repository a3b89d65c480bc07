package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"shutsugan-server/internal/auditlog"
	"shutsugan-server/internal/authz"
	"shutsugan-server/internal/middleware"
	"shutsugan-server/internal/model"
	"shutsugan-server/pkg/database"
	"shutsugan-server/pkg/jwtutil"
	"shutsugan-server/pkg/logger"
	"shutsugan-server/prometheus"
)

// AdminLogin authenticates a staff account (teacher, admin or super_admin)
// and records the login in the operation log.
func AdminLogin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.AdminLoginCounter.Inc()

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request"})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "username and password are required"})
	}

	var user model.User
	result := database.GetDB().Where("username = ?", strings.TrimSpace(req.Username)).First(&user)
	if result.Error != nil {
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid username or password"})
	}

	role := authz.NormalizeRole(user.Role)
	if !role.Staff() {
		prometheus.RecordAuthError("wrong_role")
		return c.JSON(http.StatusForbidden, echo.Map{"message": "not a staff account"})
	}
	if user.Status != authz.StatusActive {
		prometheus.RecordAuthError("account_disabled")
		return c.JSON(http.StatusForbidden, echo.Map{"message": "account disabled"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid username or password"})
	}

	// Login bookkeeping
	now := time.Now()
	database.GetDB().Model(&user).Updates(map[string]interface{}{
		"last_login_at": now,
		"login_count":   gorm.Expr("COALESCE(login_count, 0) + 1"),
	})

	token, err := jwtutil.GenerateToken(user.ID, user.Username, string(role))
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "token error"})
	}

	auditlog.Record(auditlog.Entry{
		OperatorID:   user.ID,
		OperatorName: user.Username,
		Action:       "admin_login",
		TargetType:   "user",
		TargetID:     itoa(user.ID),
		IP:           c.RealIP(),
	})

	log.Info("Staff logged in", zap.String("username", user.Username), zap.String("role", string(role)))
	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": echo.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     role,
		},
	})
}

// previewUsername is the shared student account staff log into when jumping
// to the student-facing UI.
const previewUsername = "staff_preview"

// previewPassword returns a random throwaway password for the preview
// account; nobody logs in with it directly.
func previewPassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// StudentPreviewToken issues a student token for the shared preview account,
// creating the account on first use.
func StudentPreviewToken(c echo.Context) error {
	log := logger.FromContext(c)

	var user model.User
	result := database.GetDB().Where("username = ?", previewUsername).First(&user)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			log.Error("Failed to look up preview account", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "preview account unavailable"})
		}
		password, err := previewPassword()
		if err != nil {
			log.Error("Failed to generate preview password", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "preview account unavailable"})
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Error("Failed to hash preview password", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "preview account unavailable"})
		}
		user = model.User{
			Username: previewUsername,
			Email:    previewUsername + "@internal.local",
			Password: string(hashed),
			Role:     string(authz.RoleUser),
			Status:   authz.StatusActive,
		}
		if result := database.GetDB().Create(&user); result.Error != nil {
			// Another request may have created it first.
			if isUniqueViolation(result.Error) {
				if retry := database.GetDB().Where("username = ?", previewUsername).First(&user); retry.Error != nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{"message": "preview account unavailable"})
				}
			} else {
				log.Error("Failed to create preview account", zap.Error(result.Error))
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "preview account unavailable"})
			}
		}
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Username, string(authz.RoleUser))
	if err != nil {
		log.Error("Failed to generate preview token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "token error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": echo.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     authz.RoleUser,
		},
	})
}

// AdminMe returns the acting staff account, for role-based menus
func AdminMe(c echo.Context) error {
	staff, ok := middleware.Staff(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "not authenticated"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":       staff.ID,
		"username": staff.Username,
		"email":    staff.Email,
		"role":     staff.Role,
	})
}
