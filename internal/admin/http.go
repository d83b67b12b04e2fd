package admin

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// RegisterHTTP mounts the JSON mirror of AdminService's three methods on
// r, under /admin, next to the /metrics handler that New (server.go)
// mounts on the same router (spec.md §4.9).
func RegisterHTTP(r *mux.Router, srv AdminServiceServer) {
	r.HandleFunc("/admin/sessions", adminHTTPHandler(srv.ListSessions)).Methods(http.MethodGet)
	r.HandleFunc("/admin/locks", adminHTTPHandler(srv.ListLocks)).Methods(http.MethodGet)
	r.HandleFunc("/admin/capabilities", adminHTTPHandler(srv.Capabilities)).Methods(http.MethodGet)
}

func adminHTTPHandler(fn func(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		out, err := fn(req.Context(), &emptypb.Empty{})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out.AsMap()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
