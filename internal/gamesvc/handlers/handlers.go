package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/avvvet/darts-services/internal/monitor"
	"github.com/go-chi/jwtauth"
)

type Handler struct {
	service   string
	port      string
	tokenAuth *jwtauth.JWTAuth
	metrics   *monitor.Metrics
	ready     func() error
}

// NewHandler builds the HTTP surface of a service. ready, when set, is checked by the health route.
func NewHandler(service, port string, metrics *monitor.Metrics, ready func() error) *Handler {
	return &Handler{service: service, port: port, metrics: metrics, ready: ready}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(); err != nil {
			h.CreateResponse(w, Response{
				Message: h.service + " service is not ready",
				Code:    http.StatusServiceUnavailable,
				Error:   err.Error(),
			})
			return
		}
	}

	h.CreateResponse(w, Response{
		Message: h.service + " service is running at port " + h.port,
		Code:    http.StatusOK,
	})
}
