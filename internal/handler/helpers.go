package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"shutsugan-server/internal/dataset"
)

var validate = validator.New()

// Snapshot and Scores are the on-disk reference-data stores, wired at startup.
var (
	Snapshot *dataset.Store
	Scores   *dataset.ScoreModel
)

// MaxUploadBytes caps multipart spreadsheet uploads.
var MaxUploadBytes int64 = 20 * 1024 * 1024

func paramID(c echo.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// isUniqueViolation reports a Postgres unique-constraint error (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
