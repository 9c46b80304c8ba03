package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"

	"github.com/kiesman99/omafpack/internal/api"
	"github.com/kiesman99/omafpack/internal/generator"
	"github.com/kiesman99/omafpack/internal/packing"
)

// Server implements the ServerInterface from the generated API
type Server struct {
	startTime time.Time
	version   string
	gen       *generator.Generator
	log       logr.Logger
}

// NewServer creates a server answering packing queries from gen
func NewServer(version string, gen *generator.Generator, log logr.Logger) *Server {
	return &Server{
		startTime: time.Now(),
		version:   version,
		gen:       gen,
		log:       log.WithName("server"),
	}
}

var _ api.ServerInterface = (*Server)(nil)

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())

	response := api.HealthResponse{
		Status:    api.Healthy,
		Timestamp: time.Now(),
		Uptime:    &uptime,
		Version:   &s.version,
	}

	s.writeJSON(w, http.StatusOK, response)
}

// ListViewports returns every configured viewport in index order
func (s *Server) ListViewports(w http.ResponseWriter, r *http.Request) {
	set := s.gen.Viewports()
	list := api.ViewportList{Viewports: make([]api.Viewport, 0, set.Len())}
	for i := 0; i < set.Len(); i++ {
		vp, ok := set.Viewport(i)
		if !ok {
			continue
		}
		list.Viewports = append(list.Viewports, toAPIViewport(i, vp))
	}
	s.writeJSON(w, http.StatusOK, list)
}

// GetViewportPacking packs a viewport and returns both metadata structures
func (s *Server) GetViewportPacking(w http.ResponseWriter, r *http.Request, viewportIndex api.ViewportIndex) {
	res, err := s.gen.Generate(viewportIndex)
	if err != nil {
		s.handlePackingError(w, r, viewportIndex, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toAPIPacking(res))
}

// GetViewportRwpk packs a viewport and returns its region-wise packing
func (s *Server) GetViewportRwpk(w http.ResponseWriter, r *http.Request, viewportIndex api.ViewportIndex) {
	rwpk, err := s.gen.GenerateRwpk(viewportIndex)
	if err != nil {
		s.handlePackingError(w, r, viewportIndex, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toAPIRwpk(rwpk))
}

// GetViewportMergeDirection packs a viewport and returns its tiles merge direction
func (s *Server) GetViewportMergeDirection(w http.ResponseWriter, r *http.Request, viewportIndex api.ViewportIndex) {
	md, err := s.gen.GenerateMergeDirection(viewportIndex)
	if err != nil {
		s.handlePackingError(w, r, viewportIndex, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toAPIMergeDirection(md))
}

// GetViewportArrangement returns the latest arrangement without repacking
func (s *Server) GetViewportArrangement(w http.ResponseWriter, r *http.Request, viewportIndex api.ViewportIndex) {
	res, err := s.gen.Latest(viewportIndex)
	if err != nil {
		s.handlePackingError(w, r, viewportIndex, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toAPIArrangement(res.Arrangement))
}

// classify maps a packing error to an HTTP status and error code
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, packing.ErrUnknownViewport):
		return http.StatusNotFound, "UNKNOWN_VIEWPORT"
	case errors.Is(err, packing.ErrNoArrangement):
		return http.StatusNotFound, "NO_ARRANGEMENT"
	case errors.Is(err, packing.ErrEmptySelection):
		return http.StatusUnprocessableEntity, "EMPTY_SELECTION"
	case errors.Is(err, packing.ErrIncoherentSelection):
		return http.StatusUnprocessableEntity, "INCOHERENT_SELECTION"
	case errors.Is(err, packing.ErrDimensionOverflow):
		return http.StatusUnprocessableEntity, "DIMENSION_OVERFLOW"
	case errors.Is(err, packing.ErrInvariantViolation):
		return http.StatusInternalServerError, "INVARIANT_VIOLATION"
	case errors.Is(err, packing.ErrNotInitialized):
		return http.StatusServiceUnavailable, "NOT_INITIALIZED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// packingErrorResponse describes err for one viewport. Errors without a
// stage are reported against selection, the first stage.
func packingErrorResponse(viewportIndex int, err error, requestID *string) (int, api.PackingErrorResponse, bool) {
	status, code := classify(err)
	resp := api.PackingErrorResponse{
		Error:         code,
		Message:       err.Error(),
		RequestId:     requestID,
		Stage:         api.Select,
		ViewportIndex: viewportIndex,
	}

	var perr *packing.Error
	if !errors.As(err, &perr) {
		return status, resp, false
	}
	resp.Stage = api.PackingErrorResponseStage(perr.Stage)
	resp.ViewportIndex = perr.ViewportIndex
	return status, resp, true
}

// handlePackingError handles errors from generating a viewport's metadata
func (s *Server) handlePackingError(w http.ResponseWriter, r *http.Request, viewportIndex int, err error) {
	requestID := requestIDFrom(r)
	status, resp, staged := packingErrorResponse(viewportIndex, err, &requestID)

	if status >= http.StatusInternalServerError {
		s.log.Error(err, "packing request failed", "viewport", viewportIndex, "request_id", requestID)
	} else {
		s.log.V(1).Info("packing request rejected", "viewport", viewportIndex, "code", resp.Error, "request_id", requestID)
	}

	if !staged {
		s.writeErrorResponse(w, status, resp.Error, resp.Message, &requestID, nil)
		return
	}
	s.writeJSON(w, status, resp)
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string, requestID *string, details map[string]interface{}) {
	response := api.ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestId: requestID,
	}

	if details != nil {
		response.Details = &details
	}

	s.writeJSON(w, statusCode, response)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error(err, "encoding response")
	}
}

// requestIDFrom returns the chi request id, or a fresh one outside the middleware
func requestIDFrom(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return generateRequestID()
}

// generateRequestID generates a unique request ID
func generateRequestID() string {
	return fmt.Sprintf("req_%d", time.Now().UnixNano())
}
