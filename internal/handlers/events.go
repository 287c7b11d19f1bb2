package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/domain"
	"github.com/nfrund/opin/internal/session"
)

const writeTimeout = 10 * time.Second

// GuardMessage is sent to a page each time its guard decision changes.
type GuardMessage struct {
	State    string `json:"state"`
	Redirect string `json:"redirect,omitempty"`
}

// EventsHandler streams guard decisions to open pages over a websocket.
type EventsHandler struct {
	auth AuthService
	// OriginPatterns are the hosts allowed to connect besides the page's own.
	OriginPatterns []string
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(auth AuthService) *EventsHandler {
	return &EventsHandler{auth: auth}
}

// Stream starts in the loading state, sends the decision for the current
// session and then re-decides on every auth event of the user or browser
// until the page goes away.
func (h *EventsHandler) Stream(c echo.Context) error {
	kind, ok := authgate.ParseKind(c.QueryParam("guard"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown guard")
	}
	path := authgate.SanitizeNext(c.QueryParam("path"))
	next := c.QueryParam("next")

	// The session is resolved before the upgrade: a refresh must be able to
	// write the session cookie.
	state, user, err := h.auth.Current(c)
	if err != nil {
		logger(c).Warn("session query failed", "guard", kind.String(), "error", err)
		state = authgate.Unauthenticated
	}
	userID := ""
	if user != nil {
		userID = user.ID
	}
	browserID := session.PeekBrowserID(c)

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		OriginPatterns: h.OriginPatterns,
	})
	if err != nil {
		logger(c).Error("failed to upgrade auth events connection", "error", err)
		return nil
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(c.Request().Context())
	events, err := h.auth.Watch(ctx, userID, browserID)
	if err != nil {
		logger(c).Error("watch auth events", "error", err)
		conn.Close(websocket.StatusInternalError, "auth events unavailable")
		return nil
	}

	send := func(s authgate.State) bool {
		d := authgate.Decide(kind, s, path, next)
		msg := GuardMessage{State: s.String()}
		if d.Action == authgate.Redirect {
			msg.Redirect = d.Location
		}
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		defer cancel()
		if err := wsjson.Write(wctx, conn, msg); err != nil {
			logger(c).Debug("auth events write failed", "error", err)
			return false
		}
		return true
	}

	if !send(authgate.Loading) || !send(state) {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return nil
		case ev := <-events:
			if !send(stateOf(ev)) {
				return nil
			}
		}
	}
}

func stateOf(ev domain.AuthEvent) authgate.State {
	if ev.SignedIn() {
		return authgate.Authenticated
	}
	return authgate.Unauthenticated
}
