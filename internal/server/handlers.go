package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/glacierwatch/internal/climate"
	"github.com/hyperjump/glacierwatch/internal/config"
	"github.com/hyperjump/glacierwatch/internal/export"
	"github.com/hyperjump/glacierwatch/internal/models"
	"github.com/hyperjump/glacierwatch/internal/session"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CreateSessionRequest selects the AOI for a new session: a preset name, a center point
// with radius, or a polygon.
type CreateSessionRequest struct {
	Preset   string          `json:"preset,omitempty"`
	Name     string          `json:"name,omitempty"`
	Lat      *float64        `json:"lat,omitempty"`
	Lon      *float64        `json:"lon,omitempty"`
	RadiusKm float64         `json:"radius_km,omitempty"`
	Polygon  []models.LatLon `json:"polygon,omitempty"`
}

// VelocityRequest holds the two acquisition dates (YYYY-MM-DD) and optional window size.
type VelocityRequest struct {
	DateA      string `json:"date_a"`
	DateB      string `json:"date_b"`
	WindowSize int    `json:"window_size,omitempty"`
}

// ClimateRequest selects a climate variable and a date within the wanted month.
type ClimateRequest struct {
	Variable string `json:"variable"`
	Date     string `json:"date"`
}

// AskRequest is a question for the assistant.
type AskRequest struct {
	Question string `json:"question"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// VariableInfo is a climate variable with its legend.
type VariableInfo struct {
	models.ClimateVariable
	Legend models.Legend `json:"legend"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.sessions.Count(r.Context())
	if err != nil {
		s.logger.Error("session store unavailable", zap.Error(err))
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "unavailable"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "sessions": n})
}

func (s *Server) handleListGlaciers(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"glaciers": s.catalog.List()})
}

func (s *Server) handleListVariables(w http.ResponseWriter, r *http.Request) {
	vars := climate.Variables()
	out := make([]VariableInfo, 0, len(vars))
	for _, v := range vars {
		out = append(out, VariableInfo{ClimateVariable: v, Legend: climate.Legend(v)})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"variables": out})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.sessions.List(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if list == nil {
		list = []*models.Session{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"sessions": list})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !s.decode(w, r, &req) {
		return
	}
	aoi, err := s.resolveAOI(req)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	sess, err := s.sessions.Create(r.Context(), aoi)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, sess)
}

func (s *Server) resolveAOI(req CreateSessionRequest) (models.AreaOfInterest, error) {
	switch {
	case req.Preset != "":
		preset, ok := s.catalog.Lookup(req.Preset)
		if !ok {
			return models.AreaOfInterest{}, fmt.Errorf("%w: unknown glacier %q", models.ErrInvalidRequest, req.Preset)
		}
		return *preset.AOI(req.RadiusKm), nil
	case req.Lat != nil || req.Lon != nil:
		if req.Lat == nil || req.Lon == nil {
			return models.AreaOfInterest{}, fmt.Errorf("%w: both lat and lon are required", models.ErrInvalidRequest)
		}
		radius := req.RadiusKm
		if radius == 0 {
			radius = models.DefaultRadiusKm
		}
		return models.AreaOfInterest{
			Name:     req.Name,
			Center:   &models.LatLon{Lat: *req.Lat, Lon: *req.Lon},
			RadiusKm: radius,
			Zoom:     12,
		}, nil
	case len(req.Polygon) > 0:
		return models.AreaOfInterest{Name: req.Name, Polygon: req.Polygon}, nil
	default:
		return models.AreaOfInterest{}, fmt.Errorf("%w: preset, lat/lon or polygon is required", models.ErrInvalidRequest)
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleVelocity(w http.ResponseWriter, r *http.Request) {
	var req VelocityRequest
	if !s.decode(w, r, &req) {
		return
	}
	dateA, err := parseDate("date_a", req.DateA)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	dateB, err := parseDate("date_b", req.DateB)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	s.logger.Debug("velocity request", zap.String("session", id),
		zap.String("date_a", req.DateA), zap.String("date_b", req.DateB))
	field, err := s.sessions.Velocity(r.Context(), id, session.VelocityParams{
		DateA:      dateA,
		DateB:      dateB,
		WindowSize: req.WindowSize,
	})
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, field)
}

func (s *Server) handleClimate(w http.ResponseWriter, r *http.Request) {
	var req ClimateRequest
	if !s.decode(w, r, &req) {
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	layer, err := s.sessions.Climate(r.Context(), chi.URLParam(r, "id"), req.Variable, date)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, layer)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !s.decode(w, r, &req) {
		return
	}
	turn, err := s.sessions.Ask(r.Context(), chi.URLParam(r, "id"), req.Question)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, turn)
}

func (s *Server) handleTurns(w http.ResponseWriter, r *http.Request) {
	turns, err := s.sessions.Turns(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"turns": turns})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.sessions.Suggestions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "txt"
	}
	var buf bytes.Buffer
	var contentType string
	switch format {
	case "txt":
		err = export.WriteText(&buf, sess)
		contentType = "text/plain; charset=utf-8"
	case "xlsx":
		err = export.WriteXLSX(&buf, sess)
		contentType = xlsxContentType
	default:
		err = fmt.Errorf("%w: unsupported export format %q", models.ErrInvalidRequest, format)
	}
	if err != nil {
		s.respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(sess, format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body", models.ErrorCode(models.ErrInvalidRequest))
		return false
	}
	return true
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", models.ErrInvalidRequest, field)
	}
	t, err := time.Parse(config.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", models.ErrInvalidRequest, field)
	}
	return t, nil
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidRequest), errors.Is(err, models.ErrUnknownVariable):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrDateOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNoImageryFound),
		errors.Is(err, models.ErrNoGlacierOutlines),
		errors.Is(err, models.ErrNoClimateData),
		errors.Is(err, models.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrTrackingFailure), errors.Is(err, models.ErrCredential):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrAssistantUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, err.Error(), models.ErrorCode(err))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message, code string) {
	s.respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}
