package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shutsugan-server/internal/middleware"
	"shutsugan-server/internal/model"
	"shutsugan-server/pkg/database"
	"shutsugan-server/pkg/logger"
	"shutsugan-server/prometheus"
)

// ListSchools returns the caller's registered schools, newest first
func ListSchools(c echo.Context) error {
	log := logger.FromContext(c)
	claims, _ := middleware.Claims(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var schools []model.School
	if result := database.GetDB().Where("user_id = ?", claims.UserID).Order("added_at DESC").Find(&schools); result.Error != nil {
		log.Error("Failed to list schools", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}
	return c.JSON(http.StatusOK, schools)
}

// CreateSchool registers a school for the caller
func CreateSchool(c echo.Context) error {
	log := logger.FromContext(c)
	claims, _ := middleware.Claims(c)

	var req struct {
		SchoolName string `json:"school_name"`
		Location   string `json:"location"`
		Notes      string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request"})
	}
	req.SchoolName = strings.TrimSpace(req.SchoolName)
	if req.SchoolName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "school name is required"})
	}

	school := model.School{
		UserID:     claims.UserID,
		SchoolName: req.SchoolName,
		Location:   strings.TrimSpace(req.Location),
		Notes:      strings.TrimSpace(req.Notes),
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&school); result.Error != nil {
		log.Error("Failed to create school", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}
	return c.JSON(http.StatusCreated, school)
}

// DeleteSchool removes one of the caller's schools. A school owned by
// someone else reads as not found.
func DeleteSchool(c echo.Context) error {
	log := logger.FromContext(c)
	claims, _ := middleware.Claims(c)

	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Where("id = ? AND user_id = ?", id, claims.UserID).Delete(&model.School{})
	if result.Error != nil {
		log.Error("Failed to delete school", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "school not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
