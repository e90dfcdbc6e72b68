package hub

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Route registers an extra handler ahead of the viewer catch-all.
type Route func(r *mux.Router)

// NewRouter serves the health check and accepts viewer connections on
// every other path.
func NewRouter(h *Hub, routes ...Route) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	for _, route := range routes {
		route(r)
	}
	r.Handle("/ws", h)
	r.PathPrefix("/").Handler(h)
	return r
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
