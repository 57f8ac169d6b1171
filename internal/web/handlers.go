package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"wellness-planner/internal/mealplan"
	"wellness-planner/internal/metrics"
	"wellness-planner/internal/profile"
	"wellness-planner/internal/session"
)

const (
	cookieName   = "wellness_session"
	sessionIDKey = "id"
	// KeyPrefix marks registry keys owned by browser sessions.
	KeyPrefix = "web:"
)

type stateResponse struct {
	Phase      session.Phase    `json:"phase"`
	Profile    *profile.Profile `json:"profile,omitempty"`
	Plan       *mealplan.Plan   `json:"plan,omitempty"`
	Error      string           `json:"error,omitempty"`
	DialogOpen bool             `json:"dialogOpen"`
}

type adminMetricsResponse struct {
	Days     int                  `json:"days"`
	Usage    []metrics.DailyUsage `json:"usage"`
	System   metrics.SysHealth    `json:"system"`
	Sessions int                  `json:"sessions"`
}

// sessionKey returns the registry key of the caller, issuing a new session
// cookie on first visit.
func (s *Server) sessionKey(c echo.Context) (string, error) {
	sess, _ := s.store.Get(c.Request(), cookieName)
	id, ok := sess.Values[sessionIDKey].(string)
	if !ok || id == "" {
		id = uuid.New().String()
		sess.Values[sessionIDKey] = id
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			return "", err
		}
	}
	return KeyPrefix + id, nil
}

func (s *Server) orchestrator(c echo.Context) (*session.Orchestrator, error) {
	key, err := s.sessionKey(c)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to save session")
	}
	return s.registry.Get(key), nil
}

func profileFromForm(c echo.Context) profile.Profile {
	return profile.Profile{
		Name:   c.FormValue(profile.FieldName),
		Gender: profile.Gender(c.FormValue(profile.FieldGender)),
		Age:    c.FormValue(profile.FieldAge),
		Weight: c.FormValue(profile.FieldWeight),
		Height: c.FormValue(profile.FieldHeight),
	}
}

func (s *Server) indexHandler(c echo.Context) error {
	o, err := s.orchestrator(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "index.html", newPageData(o.Snapshot()))
}

func (s *Server) submitProfileHandler(c echo.Context) error {
	o, err := s.orchestrator(c)
	if err != nil {
		return err
	}

	prof := profileFromForm(c)
	_, err = o.Submit(c.Request().Context(), prof)

	var verr *profile.ValidationError
	if errors.As(err, &verr) {
		data := newPageData(o.Snapshot())
		data.Profile = prof
		data.Invalid = invalidFields(verr)
		return c.Render(http.StatusUnprocessableEntity, "index.html", data)
	}
	if err != nil {
		requestLogger(c).Debug().Err(err).Msg("Profile submit ignored")
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) regenerateHandler(c echo.Context) error {
	o, err := s.orchestrator(c)
	if err != nil {
		return err
	}
	if err := o.Regenerate(); err != nil {
		requestLogger(c).Debug().Err(err).Msg("Regenerate ignored")
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) confirmUpdateHandler(c echo.Context) error {
	o, err := s.orchestrator(c)
	if err != nil {
		return err
	}

	prof := profileFromForm(c)
	_, err = o.ConfirmUpdate(c.Request().Context(), prof)

	var verr *profile.ValidationError
	if errors.As(err, &verr) {
		data := newPageData(o.Snapshot())
		data.DialogOpen = true
		data.Dialog = prof
		data.Invalid = invalidFields(verr)
		return c.Render(http.StatusUnprocessableEntity, "index.html", data)
	}
	if err != nil {
		requestLogger(c).Debug().Err(err).Msg("Update ignored")
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) cancelUpdateHandler(c echo.Context) error {
	o, err := s.orchestrator(c)
	if err != nil {
		return err
	}
	o.CloseDialog()
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) stateHandler(c echo.Context) error {
	o, err := s.orchestrator(c)
	if err != nil {
		return err
	}

	snap := o.Snapshot()
	resp := stateResponse{
		Phase:      snap.Phase(),
		Plan:       snap.Plan(),
		Error:      snap.ErrorMessage(),
		DialogOpen: snap.DialogOpen,
	}
	if snap.HasProfile {
		resp.Profile = &snap.Profile
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) websocketHandler(c echo.Context) error {
	key, err := s.sessionKey(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save session")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	s.hub.Register(key, ws)
	defer s.hub.Unregister(key, ws)

	// A transition that landed before Register was never pushed.
	if rendered := c.QueryParam("phase"); rendered != "" {
		if current := s.registry.Get(key).Snapshot().Phase(); string(current) != rendered {
			s.hub.Refresh(key, ws)
		}
	}

	// Clients never send anything; reading detects the disconnect.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return nil
		}
	}
}

func (s *Server) healthHandler(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) adminMetricsHandler(c echo.Context) error {
	days := 7
	if v := c.QueryParam("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be a positive integer")
		}
		days = n
	}

	usage, err := s.usage.GetDailyUsage(c.Request().Context(), days)
	if err != nil {
		requestLogger(c).Error().Err(err).Msg("Failed to load usage metrics")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load usage metrics")
	}

	return c.JSON(http.StatusOK, adminMetricsResponse{
		Days:     days,
		Usage:    usage,
		System:   metrics.GetSysHealth(s.dataDir),
		Sessions: s.registry.Len(),
	})
}
