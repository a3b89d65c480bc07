package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shutsugan-server/internal/auditlog"
	"shutsugan-server/internal/dataset"
	"shutsugan-server/internal/middleware"
	"shutsugan-server/pkg/logger"
	"shutsugan-server/prometheus"
)

// readUpload pulls the "file" part out of a multipart form, enforcing the
// size cap before the whole body lands in memory.
func readUpload(c echo.Context) ([]byte, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "a file upload named 'file' is required", err
	}
	if fh.Size > MaxUploadBytes {
		return nil, "file too large", errors.New("upload exceeds size limit")
	}
	src, err := fh.Open()
	if err != nil {
		return nil, "failed to read upload", err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxUploadBytes+1))
	if err != nil {
		return nil, "failed to read upload", err
	}
	if int64(len(data)) > MaxUploadBytes {
		return nil, "file too large", errors.New("upload exceeds size limit")
	}
	return data, "", nil
}

// DataUpdate ingests a reference-data workbook: parse, back up the previous
// snapshot, then atomically replace the JSON and CSV artifacts.
func DataUpdate(c echo.Context) error {
	log := logger.FromContext(c)
	staff, _ := middleware.Staff(c)

	data, msg, err := readUpload(c)
	if err != nil {
		prometheus.RecordDataUpdate("reference", "error")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
	}

	records, err := dataset.ParseWorkbook(bytes.NewReader(data))
	if err != nil {
		prometheus.RecordDataUpdate("reference", "error")
		switch {
		case errors.Is(err, dataset.ErrEmptySheet):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "the workbook's first sheet has no data rows"})
		case errors.Is(err, dataset.ErrNoValidRows):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "no rows with a school name found"})
		default:
			log.Warn("Workbook parse failed", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "could not read the workbook"})
		}
	}

	backup, err := Snapshot.Refresh(records)
	if err != nil {
		prometheus.RecordDataUpdate("reference", "error")
		log.Error("Snapshot refresh failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to write reference data"})
	}

	prometheus.RecordDataUpdate("reference", "success")
	prometheus.SnapshotRowsGauge.Set(float64(len(records)))

	auditlog.Record(auditlog.Entry{
		OperatorID:   staff.ID,
		OperatorName: staff.Username,
		Action:       "data_update",
		TargetType:   "dataset",
		IP:           c.RealIP(),
		Details:      map[string]interface{}{"count": len(records), "backup": backup},
	})

	log.Info("Reference data updated",
		zap.Int("rows", len(records)),
		zap.String("backup", backup))
	return c.JSON(http.StatusOK, echo.Map{"count": len(records), "backup": backup})
}

// DataUpdateInfo reports the current snapshot size and recent backups
func DataUpdateInfo(c echo.Context) error {
	log := logger.FromContext(c)

	records, err := Snapshot.Current()
	if err != nil {
		log.Error("Failed to read current snapshot", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}
	backups, err := Snapshot.RecentBackups(10)
	if err != nil {
		log.Error("Failed to list backups", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"currentCount":  len(records),
		"recentBackups": backups,
	})
}

// ScoreUpdate replaces the admission-score workbook and reruns the analyzer
func ScoreUpdate(c echo.Context) error {
	log := logger.FromContext(c)
	staff, _ := middleware.Staff(c)

	data, msg, err := readUpload(c)
	if err != nil {
		prometheus.RecordDataUpdate("scores", "error")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
	}

	info, backup, err := Scores.Update(c.Request().Context(), data)
	if err != nil {
		prometheus.RecordDataUpdate("scores", "error")
		auditlog.Record(auditlog.Entry{
			OperatorID:   staff.ID,
			OperatorName: staff.Username,
			Action:       "admission_score_update",
			TargetType:   "dataset",
			IP:           c.RealIP(),
			Result:       "error",
			Details:      map[string]interface{}{"error": err.Error()},
		})
		var aerr *dataset.AnalyzerError
		if errors.As(err, &aerr) {
			log.Error("Score analyzer failed", zap.Error(aerr.Err), zap.String("output", aerr.Output))
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "score analysis failed; the previous model is untouched"})
		}
		log.Error("Score update failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to update admission scores"})
	}

	prometheus.RecordDataUpdate("scores", "success")
	auditlog.Record(auditlog.Entry{
		OperatorID:   staff.ID,
		OperatorName: staff.Username,
		Action:       "admission_score_update",
		TargetType:   "dataset",
		IP:           c.RealIP(),
		Details: map[string]interface{}{
			"bunkaCount": info.BunkaCount,
			"rikaCount":  info.RikaCount,
			"backup":     backup,
		},
	})

	log.Info("Admission score model rebuilt",
		zap.Int("bunka", info.BunkaCount),
		zap.Int("rika", info.RikaCount))
	return c.JSON(http.StatusOK, echo.Map{
		"bunkaCount": info.BunkaCount,
		"rikaCount":  info.RikaCount,
		"backup":     backup,
	})
}

// ScoreUpdateInfo reports the current score model's coverage
func ScoreUpdateInfo(c echo.Context) error {
	info, err := Scores.Info()
	if err != nil {
		logger.FromContext(c).Error("Failed to read score model", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"bunkaCount": info.BunkaCount,
		"rikaCount":  info.RikaCount,
	})
}
