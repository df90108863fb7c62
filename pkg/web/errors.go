package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ritzau/jsat-analyzer/pkg/codec"
	"github.com/ritzau/jsat-analyzer/pkg/graph"
	"github.com/ritzau/jsat-analyzer/pkg/logging"
	"github.com/ritzau/jsat-analyzer/pkg/model"
	"github.com/ritzau/jsat-analyzer/pkg/session"
)

var errBadRequest = errors.New("bad request")

// statusOf maps engine errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, graph.ErrTypeMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, graph.ErrNodeNotFound),
		errors.Is(err, graph.ErrEdgeNotFound),
		errors.Is(err, graph.ErrAgentNotFound),
		errors.Is(err, session.ErrArchitectureNotFound):
		return http.StatusNotFound
	case errors.Is(err, graph.ErrAgentExists),
		errors.Is(err, graph.ErrReservedAgent):
		return http.StatusConflict
	case errors.Is(err, codec.ErrMalformedDocument),
		errors.Is(err, graph.ErrInvalidAgentName),
		errors.Is(err, session.ErrInvalidArchitectureName),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), map[string]string{"error": err.Error()})
}

// readJSON decodes the request body into v, answering 400 on failure
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return false
	}
	return true
}

func nodeID(w http.ResponseWriter, r *http.Request, key string) (model.NodeID, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[key], 10, 64)
	if err != nil {
		writeError(w, fmt.Errorf("%w: bad node id %q", errBadRequest, mux.Vars(r)[key]))
		return 0, false
	}
	return model.NodeID(id), true
}

func edgeIDs(w http.ResponseWriter, r *http.Request) (model.NodeID, model.NodeID, bool) {
	u, ok := nodeID(w, r, "source")
	if !ok {
		return 0, 0, false
	}
	v, ok := nodeID(w, r, "target")
	return u, v, ok
}
