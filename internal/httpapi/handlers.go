package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/anuragthippani1/SentriX/internal/contracts"
	"github.com/anuragthippani1/SentriX/internal/httpx"
	"github.com/anuragthippani1/SentriX/internal/report"
	"github.com/anuragthippani1/SentriX/internal/routeplan"
	"github.com/anuragthippani1/SentriX/internal/schedule"
	"github.com/anuragthippani1/SentriX/internal/service"
	"github.com/anuragthippani1/SentriX/internal/storage"
)

const errShipmentBody = "Body must contain a 'data' array or be an array itself"

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

type sessionRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type planRequest struct {
	Ports        []string `json:"ports"`
	Optimization string   `json:"optimization"`
}

type optimizeRequest struct {
	Origin       string   `json:"origin"`
	Destination  string   `json:"destination"`
	Waypoints    []string `json:"waypoints"`
	Optimization string   `json:"optimization"`
}

type compareRequest struct {
	Route1 []string `json:"route1"`
	Route2 []string `json:"route2"`
}

func (a *API) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	result, err := a.svc.Query(r.Context(), req.Query, req.SessionID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}

func (a *API) combinedReport(w http.ResponseWriter, r *http.Request) {
	result, err := a.svc.CombinedReport(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}

func (a *API) uploadShipments(w http.ResponseWriter, r *http.Request) {
	body, err := httpx.ReadBody(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, errShipmentBody)
		return
	}
	items, err := decodeShipments(body)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, errShipmentBody)
		return
	}
	if err := a.svc.UploadShipments(items); err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "items": len(items)})
}

// decodeShipments accepts either a bare array or an object with a "data" array.
func decodeShipments(body []byte) ([]contracts.Shipment, error) {
	var items []contracts.Shipment
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}
	var wrapped struct {
		Data *[]contracts.Shipment `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode shipments: %w", err)
	}
	if wrapped.Data == nil {
		return nil, errors.New("decode shipments: missing data array")
	}
	return *wrapped.Data, nil
}

func (a *API) resetShipments(w http.ResponseWriter, _ *http.Request) {
	a.svc.ResetShipments()
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *API) listShipments(w http.ResponseWriter, _ *http.Request) {
	items, samples := a.svc.Shipments()
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items), "using_samples": samples})
}

func (a *API) highRiskShipments(w http.ResponseWriter, r *http.Request) {
	risks, err := a.svc.HighRiskEquipment()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": risks, "count": len(risks)})
}

func (a *API) listReports(w http.ResponseWriter, r *http.Request) {
	reports, err := a.svc.ListReports(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (a *API) getReport(w http.ResponseWriter, r *http.Request) {
	rep, err := a.svc.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.failWith(w, r, err, "Report not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rep)
}

func (a *API) downloadReport(w http.ResponseWriter, r *http.Request) {
	rep, err := a.svc.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.failWith(w, r, err, "Report not found")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", report.FileName(rep.ReportID)))
	if err := report.RenderPDF(w, rep); err != nil {
		// Headers are gone by now; all we can do is log.
		a.logger.Error("render report pdf", zap.String("report_id", rep.ReportID), zap.Error(err))
	}
}

func (a *API) dashboard(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, a.svc.Dashboard(r.Context()))
}

func (a *API) createSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	body, err := httpx.ReadBody(r)
	switch {
	case errors.Is(err, httpx.ErrEmptyBody):
	case err != nil:
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	default:
		if err := json.Unmarshal(body, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	sess, err := a.svc.CreateSession(r.Context(), req.Name, req.Description)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"session": sess, "message": "Session created successfully"})
}

func (a *API) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.svc.ListSessions(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := a.svc.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.failWith(w, r, err, "Session not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"session": sess})
}

func (a *API) updateSession(w http.ResponseWriter, r *http.Request) {
	var update contracts.SessionUpdate
	if err := httpx.DecodeJSON(r, &update); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if update.Empty() {
		httpx.WriteError(w, http.StatusBadRequest, "No valid fields to update")
		return
	}
	sess, err := a.svc.UpdateSession(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		a.failWith(w, r, err, "Session not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"session": sess, "message": "Session updated successfully"})
}

func (a *API) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.failWith(w, r, err, "Session not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "Session deleted successfully"})
}

func (a *API) sessionReports(w http.ResponseWriter, r *http.Request) {
	sess, reports, err := a.svc.SessionReports(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.failWith(w, r, err, "Session not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"reports": reports, "session": sess})
}

func (a *API) sessionMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := a.svc.Messages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (a *API) listPorts(w http.ResponseWriter, r *http.Request) {
	list := a.svc.Ports(r.URL.Query().Get("q"))
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"ports": list, "count": len(list)})
}

func (a *API) planRoute(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	plan, err := a.svc.PlanRoute(req.Ports, req.Optimization)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"route_analysis": plan})
}

func (a *API) optimizeRoute(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Origin == "" || req.Destination == "" {
		httpx.WriteError(w, http.StatusBadRequest, "origin and destination are required")
		return
	}
	plan, err := a.svc.OptimizeRoute(req.Origin, req.Destination, req.Waypoints, req.Optimization)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"route_analysis": plan})
}

func (a *API) compareRoutes(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	cmp, err := a.svc.CompareRoutes(req.Route1, req.Route2)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cmp)
}

func (a *API) listAlerts(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), 100)
	items, err := a.svc.ListAlerts(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func (a *API) alertStatus(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := a.svc.SetAlertStatus(r.Context(), id, status); err != nil {
			a.failWith(w, r, err, "alert not found")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	a.failWith(w, r, err, "not found")
}

// failWith maps service errors onto status codes. notFound replaces the
// message for 404s.
func (a *API) failWith(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusNotFound:
		msg = notFound
	case http.StatusInternalServerError:
		a.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	httpx.WriteError(w, status, msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlertsUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrEmptyQuery),
		errors.Is(err, service.ErrInvalidAlertStatus),
		errors.Is(err, schedule.ErrInvalidShipment),
		errors.Is(err, routeplan.ErrTooFewPorts),
		errors.Is(err, routeplan.ErrUnknownPort),
		errors.Is(err, routeplan.ErrInvalidOptimization):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
