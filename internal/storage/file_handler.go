package storage

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/middleware"
)

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// FileHandler serves the files of an AferoStore.
type FileHandler struct {
	store *AferoStore
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(s *AferoStore) *FileHandler {
	return &FileHandler{store: s}
}

// Download handles serving a file's content. Only image files are served.
func (h *FileHandler) Download(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	name := c.Param("name")
	contentType, ok := contentTypes[strings.ToLower(path.Ext(name))]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	content, err := h.store.Open(ctx, name)
	if errors.Is(err, ErrInvalidName) || errors.Is(err, os.ErrNotExist) {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	if err != nil {
		logger.Error("Failed to open avatar", slog.String("name", name), slog.String("error", err.Error()))
		return c.String(http.StatusInternalServerError, "Could not retrieve file")
	}
	defer content.Close()

	c.Response().Header().Set("Cache-Control", "public, max-age=3600")
	c.Response().Header().Set("X-Content-Type-Options", "nosniff")
	return c.Stream(http.StatusOK, contentType, content)
}
