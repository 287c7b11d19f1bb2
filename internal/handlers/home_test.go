package handlers_test

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/handlers"
	"github.com/stretchr/testify/assert"
)

func TestHomeGet(t *testing.T) {
	tests := []struct {
		name  string
		state authgate.State
		want  string
	}{
		{"signed in goes to the dashboard", authgate.Authenticated, "/dashboard"},
		{"signed out goes to sign in", authgate.Unauthenticated, "/auth/sign-in"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			h := handlers.NewHomeHandler(&fakeAuth{state: tt.state}, "")
			e.GET("/", h.HomeGet)

			rec := get(e, "/")
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get(echo.HeaderLocation))
		})
	}
}
