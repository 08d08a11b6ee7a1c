package controller

import (
	"database/sql"
	"net/http"

	dto "github.com/vibast-solutions/ms-go-contacts/app/dto/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type HealthController struct {
	db *sql.DB
}

func NewHealthController(db *sql.DB) *HealthController {
	return &HealthController{db: db}
}

func (c *HealthController) Check(ctx echo.Context) error {
	if err := c.db.PingContext(ctx.Request().Context()); err != nil {
		logrus.WithError(err).Error("Health check failed: database unreachable")
		return ctx.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "database unreachable"})
	}

	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Server alive."})
}
