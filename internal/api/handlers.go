package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"apptbook/internal/database"
	"apptbook/internal/models"
	"apptbook/internal/service"
)

type sessionResponse struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newSessionResponse(s *models.Session) sessionResponse {
	return sessionResponse{
		Token:     s.Token,
		UserID:    s.UserID,
		Email:     s.Email,
		Name:      s.Name,
		Role:      s.Role,
		ExpiresAt: s.ExpiresAt,
	}
}

func (s *HTTPServer) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	session, err := s.auth.SignUp(r.Context(), body.Email, body.Name, body.Password)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(session))
}

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	session, err := s.auth.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

func (s *HTTPServer) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := s.auth.SignOut(r.Context(), bearerToken(r)); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handlePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	actor := s.actorFromRequest(r)
	var body struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.auth.UpdatePassword(r.Context(), actor, body.Current, body.New); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleDays(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	days := s.scheduler.Days(time.Now())
	out := make([]map[string]any, 0, len(days))
	for _, d := range days {
		out = append(out, map[string]any{
			"date":       d.Key(),
			"label":      d.Label(),
			"is_holiday": d.IsHoliday,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": out})
}

func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dateKey := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateKey == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	if _, err := time.Parse("2006-01-02", dateKey); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	actor := s.actorFromRequest(r)
	snapshot, err := s.scheduler.Reconcile(r.Context(), actor, dateKey)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":  dateKey,
		"slots": s.scheduler.SlotStates(snapshot),
	})
}

func (s *HTTPServer) handleAppointments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleMyAppointments(w, r)
	case http.MethodPost:
		s.handleBook(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleMyAppointments(w http.ResponseWriter, r *http.Request) {
	actor := s.actorFromRequest(r)
	appointments, err := s.scheduler.MyAppointments(r.Context(), actor)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if appointments == nil {
		appointments = []*models.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appointments})
}

func (s *HTTPServer) handleBook(w http.ResponseWriter, r *http.Request) {
	actor := s.actorFromRequest(r)

	var body struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	appointment, err := s.scheduler.Book(r.Context(), actor, body.Date, body.Time)
	if err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			// Ship the refreshed slot panel with the conflict so the page
			// can repaint without a second round trip.
			snapshot, rerr := s.scheduler.Reconcile(r.Context(), actor, body.Date)
			resp := map[string]any{"error": "slot already booked"}
			if rerr == nil {
				resp["slots"] = s.scheduler.SlotStates(snapshot)
			}
			writeJSON(w, http.StatusConflict, resp)
			return
		}
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appointment)
}

func (s *HTTPServer) handleAppointmentByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/api/v1/appointments/")
	if !ok {
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	actor := s.actorFromRequest(r)
	if err := s.scheduler.Cancel(r.Context(), actor, id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleAdminAppointments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	actor := s.actorFromRequest(r)
	start := strings.TrimSpace(r.URL.Query().Get("start"))
	end := strings.TrimSpace(r.URL.Query().Get("end"))
	if start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "start and end are required")
		return
	}
	if _, err := time.Parse("2006-01-02", start); err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date; expected YYYY-MM-DD")
		return
	}
	if _, err := time.Parse("2006-01-02", end); err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date; expected YYYY-MM-DD")
		return
	}

	appointments, err := s.scheduler.AllAppointments(r.Context(), actor, start, end)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if appointments == nil {
		appointments = []*models.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appointments})
}

func (s *HTTPServer) handleAdminAppointmentByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/api/v1/admin/appointments/")
	if !ok {
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	actor := s.actorFromRequest(r)
	if err := s.scheduler.CancelAny(r.Context(), actor, id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	actor := s.actorFromRequest(r)
	if actor.ID == 0 {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	if !actor.CanManage() {
		writeError(w, http.StatusForbidden, "operation not allowed for this role")
		return
	}

	days := s.scheduler.Days(time.Now())

	// ?save=1 writes the workbook under the exports directory instead of
	// streaming it, for jobs that want a file on disk.
	if save, _ := strconv.ParseBool(r.URL.Query().Get("save")); save {
		path, err := s.exporter.SaveSchedule(r.Context(), days)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"path": path})
		return
	}

	f, err := s.exporter.Workbook(r.Context(), days)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "schedule.xlsx"))
	if err := f.Write(w); err != nil {
		s.logger.Error().Err(err).Msg("stream export workbook error")
	}
}

func (s *HTTPServer) handleAdminUserRole(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	actor := s.actorFromRequest(r)
	var body struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.auth.SetRole(r.Context(), actor, body.Email, body.Role); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "not signed in")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "operation not allowed for this role")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "too many attempts")
	case errors.Is(err, service.ErrInvalidSlot):
		writeError(w, http.StatusBadRequest, "not a bookable slot")
	case errors.Is(err, service.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "password too short")
	case errors.Is(err, service.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "invalid email address")
	case errors.Is(err, service.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "unknown role")
	case errors.Is(err, database.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot already booked")
	case errors.Is(err, database.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func pathID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	raw = strings.TrimSuffix(raw, "/")
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
