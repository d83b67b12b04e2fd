// Package admin implements the Admin/Introspection Service (spec.md
// §4.9, C11): a gRPC service, plus an HTTP JSON mirror on the same
// gorilla/mux router, exposing the live session table, lock table, and
// advertised capability set to operator tooling. It is the concrete
// backing for the in-process ietf-netconf-monitoring provider
// (internal/monitoring): both read the same tables, one renders them as
// NETCONF instance data, the other as gRPC/JSON.
package admin

import (
	"context"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/openncd/netconfd/internal/backend"
	"github.com/openncd/netconfd/internal/session"
)

// Service implements AdminServiceServer against a live session table and
// lock manager.
type Service struct {
	table        *session.Table
	locks        *session.LockManager
	capabilities []string
}

// NewService returns a Service backed by table and locks, advertising
// capabilities in its Capabilities response.
func NewService(table *session.Table, locks *session.LockManager, capabilities []string) *Service {
	return &Service{table: table, locks: locks, capabilities: capabilities}
}

// ListSessions implements AdminServiceServer.
func (s *Service) ListSessions(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	sessions := make([]interface{}, 0)
	for _, sess := range s.table.List() {
		sessions = append(sessions, map[string]interface{}{
			"session-id":      sess.ID,
			"datastore":       sess.Datastore().String(),
			"candidate-dirty": sess.CandidateDirty(),
		})
	}
	return structpb.NewStruct(map[string]interface{}{"sessions": sessions})
}

// ListLocks implements AdminServiceServer.
func (s *Service) ListLocks(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	locks := make([]interface{}, 0)
	for _, ds := range []backend.Datastore{backend.Running, backend.Startup, backend.Candidate} {
		holder, locked := s.locks.HolderOf(ds)
		if !locked {
			continue
		}
		locks = append(locks, map[string]interface{}{
			"datastore": ds.String(),
			"holder":    holder,
		})
	}
	return structpb.NewStruct(map[string]interface{}{"locks": locks})
}

// Capabilities implements AdminServiceServer.
func (s *Service) Capabilities(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	caps := make([]interface{}, len(s.capabilities))
	for i, c := range s.capabilities {
		caps[i] = c
	}
	return structpb.NewStruct(map[string]interface{}{"capabilities": caps})
}

var _ AdminServiceServer = (*Service)(nil)
