package handlers

import (
	"net/http"

	"call_center_app_go/services/realtime"

	"github.com/labstack/echo/v4"
)

// HomeHandler is the liveness text
func HomeHandler(c echo.Context) error {
	return c.String(http.StatusOK, "Backend running")
}

// WebSocketHandler upgrades the request and registers the connection with the hub
func WebSocketHandler(hub *realtime.Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		hub.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}
