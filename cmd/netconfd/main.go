// Command netconfd bootstraps the NETCONF server core: it wires the
// config loader, the session/lock tables, the operation dispatcher, the
// in-process state providers, and the admin/metrics surface together and
// runs until terminated.
//
// This binary does not open a NETCONF listener of its own. spec.md scopes
// SSH/TLS transport, wire framing, and the <hello> capability exchange out
// of this server; internal/transport.Handler is the Go-native boundary a
// separate transport process would sit in front of. What this binary runs
// is everything on this side of that boundary: the dispatcher a transport
// process would call into, and the admin/metrics surface operators use to
// watch it.
//
// No production backend.Conn or schema.Client ships in this repo either —
// spec.md frames both as externally-supplied collaborators. This binary
// wires internal/backend/memstore and internal/schema/fixture as its
// standalone reference runtime, the same role they play in this repo's
// test suites.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openncd/netconfd/internal/admin"
	"github.com/openncd/netconfd/internal/backend/memstore"
	"github.com/openncd/netconfd/internal/config"
	"github.com/openncd/netconfd/internal/dispatch"
	"github.com/openncd/netconfd/internal/metrics"
	"github.com/openncd/netconfd/internal/monitoring"
	"github.com/openncd/netconfd/internal/schema"
	"github.com/openncd/netconfd/internal/schema/fixture"
	"github.com/openncd/netconfd/internal/session"
	"github.com/openncd/netconfd/internal/transport"
)

var (
	configFile  string
	debug       bool
	versionFlag bool
	version     = "dev"
)

var stop bool

func main() {
	pflag.StringVarP(&configFile, "config", "c", "/etc/netconfd/config.yaml", "config file path")
	pflag.BoolVarP(&debug, "debug", "d", false, "set log level to debug")
	pflag.BoolVarP(&versionFlag, "version", "v", false, "print version")
	pflag.Parse()

	if versionFlag {
		fmt.Println(version)
		return
	}

	if debug {
		log.SetLevel(log.DebugLevel)
	}

	var adminSrv *admin.Server
START:
	if adminSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		adminSrv.Stop(ctx)
		cancel()
	}

	cfg, err := config.New(configFile)
	if err != nil {
		log.WithError(err).Fatal("failed to read config")
	}
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil && !debug {
		log.SetLevel(lvl)
	}
	log.WithField("config", configFile).Info("netconfd bootstrap")

	ctx, cancel := context.WithCancel(context.Background())
	setupCloseHandler(cancel)

	c := newCore(cfg)

	adminService := admin.NewService(c.table, c.locks, advertisedCapabilities(cfg))
	adminSrv, err = admin.New(ctx, cfg.Admin, cfg.Prometheus, c.registry, adminService)
	if err != nil {
		log.WithError(err).Error("failed to start admin server")
		time.Sleep(time.Second)
		goto START
	}

	log.WithFields(log.Fields{
		"admin":   cfg.Admin.Address,
		"metrics": cfg.Prometheus.Address,
	}).Info("admin/metrics surface ready; NETCONF transport is out of scope for this binary")

	err = adminSrv.Serve()
	if err != nil {
		if stop {
			return
		}
		log.WithError(err).Error("admin server stopped unexpectedly")
		time.Sleep(time.Second)
		goto START
	}
}

// core holds every piece the admin surface and a future transport process
// share: the session/lock tables, the dispatcher, and the parsed-RPC
// handler transport.Handler wraps around it. Grouping them in one struct
// keeps main from needing to discard values it constructs but doesn't
// call directly yet, the way an unused local would.
type core struct {
	table    *session.Table
	locks    *session.LockManager
	conn     *memstore.Conn
	dispatch *dispatch.Dispatcher
	handler  *transport.Handler
	registry *prometheus.Registry
}

func newCore(cfg *config.Config) *core {
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	table := session.NewTable(session.WithSessionCountHook(rec.SetActiveSessions))
	locks := session.NewLockManager(table)
	sc, modules := referenceSchema()
	conn := memstore.New()

	provider := monitoring.New(table, locks, modules)

	opts := []dispatch.Option{
		dispatch.WithMetrics(rec),
		dispatch.WithStateProvider(provider),
	}
	if cfg.URLEnabled() {
		log.Warn("url capability enabled but no url fetcher is wired in this reference runtime; get-config/edit-config from url will fail")
	}
	d := dispatch.New(sc, table, locks, opts...)

	return &core{
		table:    table,
		locks:    locks,
		conn:     conn,
		dispatch: d,
		handler:  transport.NewHandler(d, table),
		registry: reg,
	}
}

// referenceSchema returns the standalone fixture schema.Client this
// binary ships with, along with the module list the ietf-yang-library
// provider advertises.
func referenceSchema() (schema.Client, []monitoring.ModuleInfo) {
	sc := fixture.New()
	sc.RegisterModule("ietf-interfaces", "urn:ietf:params:xml:ns:yang:ietf-interfaces", "if")
	sc.RegisterNode("ietf-interfaces", []string{"if:interfaces"}, schema.NodeInfo{Kind: schema.NodeContainer})
	sc.RegisterNode("ietf-interfaces", []string{"if:interfaces", "if:interface"}, schema.NodeInfo{
		Kind: schema.NodeList, Keys: []string{"name"},
	})
	sc.RegisterNode("ietf-interfaces", []string{"if:interfaces", "if:interface", "if:name"}, schema.NodeInfo{
		Kind: schema.NodeLeaf, Type: schema.LeafType{Base: "string"}, Config: true,
	})
	sc.RegisterNode("ietf-interfaces", []string{"if:interfaces", "if:interface", "if:enabled"}, schema.NodeInfo{
		Kind: schema.NodeLeaf, Type: schema.LeafType{Base: "boolean"}, Config: true,
		Default: "true", HasDefault: true,
	})
	return sc, []monitoring.ModuleInfo{
		{Name: "ietf-interfaces", Revision: "2018-02-20", Namespace: "urn:ietf:params:xml:ns:yang:ietf-interfaces"},
	}
}

func advertisedCapabilities(cfg *config.Config) []string {
	caps := []string{
		"urn:ietf:params:netconf:base:1.1",
		"urn:ietf:params:netconf:capability:candidate:1.0",
		"urn:ietf:params:netconf:capability:validate:1.1",
		"urn:ietf:params:netconf:capability:with-defaults:1.0",
	}
	if cfg.StartupEnabled() {
		caps = append(caps, "urn:ietf:params:netconf:capability:startup:1.0")
	}
	if cfg.URLEnabled() {
		caps = append(caps, "urn:ietf:params:netconf:capability:url:1.0")
	}
	return caps
}

func setupCloseHandler(cancelFn context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-c
		log.Infof("received signal %q, terminating", sig)
		stop = true
		cancelFn()
		time.Sleep(500 * time.Millisecond)
		os.Exit(0)
	}()
}
