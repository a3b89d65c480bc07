package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shutsugan-server/internal/auditlog"
	"shutsugan-server/internal/middleware"
	"shutsugan-server/internal/model"
	"shutsugan-server/pkg/database"
	"shutsugan-server/pkg/logger"
	"shutsugan-server/prometheus"
)

// AdminListSchools pages through every user's registered schools, joined with
// the owning account's username.
func AdminListSchools(c echo.Context) error {
	log := logger.FromContext(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 10 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := database.GetDB().Model(&model.School{}).
		Joins("LEFT JOIN users ON users.id = schools.user_id")
	if userID := c.QueryParam("user_id"); userID != "" {
		if id, err := strconv.ParseUint(userID, 10, 64); err == nil {
			query = query.Where("schools.user_id = ?", id)
		}
	}
	if search := strings.TrimSpace(c.QueryParam("search")); search != "" {
		pattern := "%" + strings.ReplaceAll(search, "%", `\%`) + "%"
		query = query.Where("schools.school_name ILIKE ? OR users.username ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count schools", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}

	var rows []struct {
		model.School
		AddedBy string `json:"added_by"`
	}
	err := query.
		Select("schools.*, users.username AS added_by").
		Order("schools.added_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Scan(&rows).Error
	if err != nil {
		log.Error("Failed to list schools", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"list": rows, "total": total, "page": page, "limit": limit})
}

// AdminDeleteSchool removes any user's school entry
func AdminDeleteSchool(c echo.Context) error {
	log := logger.FromContext(c)
	staff, _ := middleware.Staff(c)

	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Where("id = ?", id).Delete(&model.School{})
	if result.Error != nil {
		log.Error("Failed to delete school", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "school not found"})
	}

	auditlog.Record(auditlog.Entry{
		OperatorID:   staff.ID,
		OperatorName: staff.Username,
		Action:       "delete_school",
		TargetType:   "school",
		TargetID:     itoa(id),
		IP:           c.RealIP(),
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
