package server

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v5"
)

//go:embed index.html
var indexHTML string

func (s *Server) handleIndex(c *echo.Context) error {
	return c.HTML(http.StatusOK, indexHTML)
}
