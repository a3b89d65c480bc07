package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shutsugan-server/internal/authz"
	"shutsugan-server/internal/model"
	"shutsugan-server/pkg/database"
	"shutsugan-server/pkg/logger"
)

// countOrZero runs a count query and degrades to zero on error so one bad
// statistic never takes down the whole dashboard.
func countOrZero(c echo.Context, name string, run func() (int64, error)) int64 {
	n, err := run()
	if err != nil {
		logger.FromContext(c).Warn("Dashboard count failed", zap.String("stat", name), zap.Error(err))
		return 0
	}
	return n
}

// startOfDay returns midnight of t's calendar day in t's location.
// Truncate would cut at a UTC day boundary instead.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Dashboard returns the admin landing-page statistics
func Dashboard(c echo.Context) error {
	db := database.GetDB()
	todayStart := startOfDay(time.Now())

	totalUsers := countOrZero(c, "total_users", func() (int64, error) {
		var n int64
		err := db.Model(&model.User{}).Where("role = ?", authz.RoleUser).Count(&n).Error
		return n, err
	})
	totalTeachers := countOrZero(c, "total_teachers", func() (int64, error) {
		var n int64
		err := db.Model(&model.User{}).Where("role = ?", authz.RoleTeacher).Count(&n).Error
		return n, err
	})
	totalSchools := countOrZero(c, "total_schools", func() (int64, error) {
		var n int64
		err := db.Model(&model.School{}).Count(&n).Error
		return n, err
	})
	todayUsers := countOrZero(c, "today_users", func() (int64, error) {
		var n int64
		err := db.Model(&model.User{}).Where("created_at >= ?", todayStart).Count(&n).Error
		return n, err
	})
	todaySchools := countOrZero(c, "today_schools", func() (int64, error) {
		var n int64
		err := db.Model(&model.School{}).Where("added_at >= ?", todayStart).Count(&n).Error
		return n, err
	})
	todayLogins := countOrZero(c, "today_logins", func() (int64, error) {
		var n int64
		err := db.Model(&model.User{}).Where("last_login_at >= ?", todayStart).Count(&n).Error
		return n, err
	})

	return c.JSON(http.StatusOK, echo.Map{
		"total_users":    totalUsers,
		"total_teachers": totalTeachers,
		"total_schools":  totalSchools,
		"today_users":    todayUsers,
		"today_schools":  todaySchools,
		"today_logins":   todayLogins,
	})
}

// DashboardRecent returns the latest registrations for the activity feed
func DashboardRecent(c echo.Context) error {
	log := logger.FromContext(c)
	db := database.GetDB()

	var users []struct {
		ID        uint      `json:"id"`
		Username  string    `json:"username"`
		Role      string    `json:"role"`
		CreatedAt time.Time `json:"created_at"`
	}
	if err := db.Model(&model.User{}).
		Select("id, username, role, created_at").
		Order("created_at DESC").
		Limit(10).
		Scan(&users).Error; err != nil {
		log.Error("Failed to load recent users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}

	var schools []struct {
		ID         uint      `json:"id"`
		SchoolName string    `json:"school_name"`
		AddedBy    string    `json:"added_by"`
		AddedAt    time.Time `json:"added_at"`
	}
	if err := db.Model(&model.School{}).
		Select("schools.id, schools.school_name, users.username AS added_by, schools.added_at").
		Joins("LEFT JOIN users ON users.id = schools.user_id").
		Order("schools.added_at DESC").
		Limit(20).
		Scan(&schools).Error; err != nil {
		log.Error("Failed to load recent schools", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"users": users, "schools": schools})
}
