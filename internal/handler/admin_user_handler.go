package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"shutsugan-server/internal/auditlog"
	"shutsugan-server/internal/authz"
	"shutsugan-server/internal/middleware"
	"shutsugan-server/internal/model"
	"shutsugan-server/pkg/database"
	"shutsugan-server/pkg/logger"
)

type createAccountRequest struct {
	Username string `json:"username" validate:"required,min=2"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// createAccount inserts an account with the given role; email falls back to
// a placeholder under the role's domain when not provided.
func createAccount(c echo.Context, role authz.Role, emailDomain, action, successMessage string) error {
	log := logger.FromContext(c)
	staff, _ := middleware.Staff(c)

	var req createAccountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "username (min 2 chars) and password (min 6 chars) are required; email must be valid when given"})
	}
	if req.Email == "" {
		req.Email = req.Username + "@" + emailDomain
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}

	user := model.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		Role:     string(role),
		Status:   authz.StatusActive,
	}
	if result := database.GetDB().Create(&user); result.Error != nil {
		if isUniqueViolation(result.Error) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "username or email already in use"})
		}
		log.Error("Failed to create account", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}

	auditlog.Record(auditlog.Entry{
		OperatorID:   staff.ID,
		OperatorName: staff.Username,
		Action:       action,
		TargetType:   "user",
		TargetID:     itoa(user.ID),
		IP:           c.RealIP(),
		Details:      map[string]interface{}{"username": user.Username},
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message": successMessage,
		"user": echo.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     role,
		},
	})
}

// CreateStudentAccount lets teachers and administrators issue student accounts
func CreateStudentAccount(c echo.Context) error {
	return createAccount(c, authz.RoleUser, "account.local",
		"create_student_account", "account created; hand the username and password to the student")
}

// CreateTeacherAccount lets administrators issue teacher accounts
func CreateTeacherAccount(c echo.Context) error {
	return createAccount(c, authz.RoleTeacher, "teacher.local",
		"create_teacher_account", "teacher account created")
}

// ListUsers returns a paged account list with search, role and status filters
func ListUsers(c echo.Context) error {
	log := logger.FromContext(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 10 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	defer func(start time.Time) {
		log.Debug("users list", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	query := database.GetDB().Model(&model.User{})
	if search := strings.TrimSpace(c.QueryParam("search")); search != "" {
		pattern := "%" + strings.ReplaceAll(search, "%", `\%`) + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ?", pattern, pattern)
	}
	if role := c.QueryParam("role"); role != "" && authz.Role(role).In(authz.RoleUser, authz.RoleTeacher, authz.RoleAdmin, authz.RoleSuperAdmin) {
		query = query.Where("role = ?", role)
	}
	if status := c.QueryParam("status"); status == authz.StatusActive || status == authz.StatusDisabled || status == authz.StatusDeleted {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}

	var rows []struct {
		model.User
		SchoolCount int64 `json:"school_count"`
	}
	err := query.
		Select("users.*, (SELECT COUNT(*) FROM schools WHERE schools.user_id = users.id) AS school_count").
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Scan(&rows).Error
	if err != nil {
		log.Error("Failed to list users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"list": rows, "total": total, "page": page, "limit": limit})
}

// GetUser returns one account with its registered schools
func GetUser(c echo.Context) error {
	log := logger.FromContext(c)

	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	var user model.User
	if result := database.GetDB().First(&user, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
	}

	var schools []model.School
	if err := database.GetDB().Where("user_id = ?", id).Order("added_at DESC").Find(&schools).Error; err != nil {
		log.Error("Failed to load user's schools", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":            user.ID,
		"username":      user.Username,
		"email":         user.Email,
		"role":          authz.NormalizeRole(user.Role),
		"status":        user.Status,
		"created_at":    user.CreatedAt,
		"last_login_at": user.LastLoginAt,
		"login_count":   user.LoginCount,
		"schools":       schools,
	})
}

// UpdateUser applies admin edits to username, email, role or status.
// Fields failing validation are skipped; an empty update set is an error.
func UpdateUser(c echo.Context) error {
	log := logger.FromContext(c)
	staff, _ := middleware.Staff(c)

	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	var req struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Role     *string `json:"role"`
		Status   *string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request"})
	}

	updates := map[string]interface{}{}
	var changed []string
	if req.Username != nil && len(strings.TrimSpace(*req.Username)) >= 3 {
		updates["username"] = strings.TrimSpace(*req.Username)
		changed = append(changed, "username")
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if validate.Var(email, "required,email") == nil {
			updates["email"] = email
			changed = append(changed, "email")
		}
	}
	if req.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*req.Role))
		if authz.Role(role).In(authz.RoleUser, authz.RoleTeacher, authz.RoleAdmin, authz.RoleSuperAdmin) {
			updates["role"] = role
			changed = append(changed, "role")
		}
	}
	if req.Status != nil {
		if s := *req.Status; s == authz.StatusActive || s == authz.StatusDisabled || s == authz.StatusDeleted {
			updates["status"] = s
			changed = append(changed, "status")
		}
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "no updatable fields provided"})
	}

	result := database.GetDB().Model(&model.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "username or email already in use"})
		}
		log.Error("Failed to update user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
	}

	auditlog.Record(auditlog.Entry{
		OperatorID:   staff.ID,
		OperatorName: staff.Username,
		Action:       "update_user",
		TargetType:   "user",
		TargetID:     itoa(id),
		IP:           c.RealIP(),
		Details:      map[string]interface{}{"updates": changed},
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}
