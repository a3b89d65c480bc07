package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shutsugan-server/internal/middleware"
	"shutsugan-server/internal/model"
	"shutsugan-server/pkg/database"
	"shutsugan-server/pkg/logger"
	"shutsugan-server/prometheus"
)

// ListPlan returns the caller's application plan in priority order
// (insertion order).
func ListPlan(c echo.Context) error {
	log := logger.FromContext(c)
	claims, _ := middleware.Claims(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var items []model.PlanItem
	if result := database.GetDB().Where("user_id = ?", claims.UserID).Order("created_at ASC").Find(&items); result.Error != nil {
		log.Error("Failed to list plan items", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}

	out := make([]echo.Map, 0, len(items))
	for _, item := range items {
		out = append(out, echo.Map{"id": item.ID, "payload": item.Payload})
	}
	return c.JSON(http.StatusOK, out)
}

// CreatePlanItem appends one school/department entry to the caller's plan
func CreatePlanItem(c echo.Context) error {
	log := logger.FromContext(c)
	claims, _ := middleware.Claims(c)

	var req struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request"})
	}
	if !isJSONObject(req.Payload) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "payload must be a JSON object"})
	}

	item := model.PlanItem{
		UserID:  claims.UserID,
		Payload: []byte(req.Payload),
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&item); result.Error != nil {
		log.Error("Failed to create plan item", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": item.ID, "payload": item.Payload})
}

// DeletePlanItem removes an entry from the caller's plan. Out-of-scope ids
// read as not found.
func DeletePlanItem(c echo.Context) error {
	log := logger.FromContext(c)
	claims, _ := middleware.Claims(c)

	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Where("id = ? AND user_id = ?", id, claims.UserID).Delete(&model.PlanItem{})
	if result.Error != nil {
		log.Error("Failed to delete plan item", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "plan item not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

// isJSONObject reports whether raw is a JSON object. Unmarshal alone is not
// enough: "null" decodes into a nil map, so the first byte must be '{'.
func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var obj map[string]json.RawMessage
	return json.Unmarshal(trimmed, &obj) == nil
}
