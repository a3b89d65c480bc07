package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shutsugan-server/pkg/logger"
)

// GetOverview serves the current reference snapshot to clients. The data is
// public reference material, so no authentication is required.
func GetOverview(c echo.Context) error {
	log := logger.FromContext(c)

	records, err := Snapshot.Current()
	if err != nil {
		log.Error("Failed to read snapshot", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}
	if records == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "no reference data available yet"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": records})
}
