package admin

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/openncd/netconfd/internal/config"
)

// Server hosts the admin gRPC service and its HTTP/JSON + /metrics
// mirror on one gorilla/mux router, grounded on the teacher's
// pkg/server/server.go New/Serve/ServeHTTP/Stop shape.
type Server struct {
	grpcAddr string
	httpAddr string

	grpcSrv *grpc.Server
	router  *mux.Router
	reg     *prometheus.Registry

	httpSrv *http.Server
}

// New wires interceptor chains (logging via grpc_middleware, RPC metrics
// via grpc_prometheus) around srv and mounts its HTTP mirror plus
// /metrics on router.
func New(ctx context.Context, cfg *config.AdminServer, promCfg *config.PromConfig, reg *prometheus.Registry, srv AdminServiceServer) (*Server, error) {
	grpcMetrics := grpc_prometheus.NewServerMetrics()
	reg.MustRegister(grpcMetrics)

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(grpc_middleware.ChainUnaryServer(
			loggingInterceptor,
			grpcMetrics.UnaryServerInterceptor(),
		)),
		grpc.StreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	}
	if cfg.TLS != nil {
		tlsCfg, err := cfg.TLS.NewTLSConfig(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, grpc.Creds(credentials.NewTLS(tlsCfg)))
	}

	grpcSrv := grpc.NewServer(opts...)
	RegisterAdminServiceServer(grpcSrv, srv)
	grpcMetrics.InitializeMetrics(grpcSrv)

	router := mux.NewRouter()
	RegisterHTTP(router, srv)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &Server{
		grpcAddr: cfg.Address,
		httpAddr: promCfg.Address,
		grpcSrv:  grpcSrv,
		router:   router,
		reg:      reg,
		httpSrv: &http.Server{
			Addr:         promCfg.Address,
			Handler:      router,
			ReadTimeout:  time.Minute,
			WriteTimeout: time.Minute,
		},
	}, nil
}

func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	log.WithFields(log.Fields{
		"method":   info.FullMethod,
		"duration": time.Since(start),
		"error":    err,
	}).Debug("admin rpc")
	return resp, err
}

// Serve starts both listeners; it blocks on the gRPC listener and
// returns once it stops.
func (s *Server) Serve() error {
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("admin http server stopped: %v", err)
		}
	}()

	l, err := net.Listen("tcp", s.grpcAddr)
	if err != nil {
		return err
	}
	log.Infof("admin gRPC service listening on %s", s.grpcAddr)
	return s.grpcSrv.Serve(l)
}

// Stop gracefully stops both listeners.
func (s *Server) Stop(ctx context.Context) {
	s.grpcSrv.GracefulStop()
	_ = s.httpSrv.Shutdown(ctx)
}
