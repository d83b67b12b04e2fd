// Package config implements the Config Loader (spec.md §4.7, C9): a
// YAML server configuration file, grounded on the teacher's
// config.Config/validateSetDefaults idiom.
package config

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/AlekSi/pointer"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
	"sigs.k8s.io/controller-runtime/pkg/certwatcher"
)

// Config is the top-level server configuration.
type Config struct {
	NETCONF    *NETCONFServer `yaml:"netconf-server,omitempty" json:"netconf-server,omitempty"`
	Admin      *AdminServer   `yaml:"admin-server,omitempty" json:"admin-server,omitempty"`
	Prometheus *PromConfig    `yaml:"prometheus,omitempty" json:"prometheus,omitempty"`
	LogLevel   string         `yaml:"log-level,omitempty" json:"log-level,omitempty"`
}

// NETCONFServer holds the listener and capability toggles for the
// NETCONF-over-SSH/TLS transport.
type NETCONFServer struct {
	Address string `yaml:"address,omitempty" json:"address,omitempty"`
	TLS     *TLS   `yaml:"tls,omitempty" json:"tls,omitempty"`

	// Capabilities toggles spec.md §4.7's capability set.
	Capabilities CapabilityConfig `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`

	MaxRecvMsgSize int `yaml:"max-recv-msg-size,omitempty" json:"max-recv-msg-size,omitempty"`
}

// CapabilityConfig toggles the optional NETCONF capabilities this server
// advertises. StartupEnabled and URLEnabled default to false; WithDefaultsBasicMode
// defaults to "report-all" (spec.md §4.6).
type CapabilityConfig struct {
	StartupEnabled       *bool  `yaml:"startup,omitempty" json:"startup,omitempty"`
	URLEnabled           *bool  `yaml:"url,omitempty" json:"url,omitempty"`
	WithDefaultsBasicMode string `yaml:"with-defaults-basic-mode,omitempty" json:"with-defaults-basic-mode,omitempty"`
}

// AdminServer holds the gRPC+HTTP introspection listener (internal/admin).
type AdminServer struct {
	Address string `yaml:"address,omitempty" json:"address,omitempty"`
	TLS     *TLS   `yaml:"tls,omitempty" json:"tls,omitempty"`
}

// PromConfig holds the /metrics HTTP listener (internal/metrics).
type PromConfig struct {
	Address string `yaml:"address,omitempty" json:"address,omitempty"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

// TLS mirrors the teacher's TLS block: a CA for client verification and
// a hot-reloaded cert/key pair.
type TLS struct {
	CA         string `yaml:"ca,omitempty" json:"ca,omitempty"`
	Cert       string `yaml:"cert,omitempty" json:"cert,omitempty"`
	Key        string `yaml:"key,omitempty" json:"key,omitempty"`
	SkipVerify bool   `yaml:"skip-verify,omitempty" json:"skip-verify,omitempty"`
}

// New reads and validates the YAML config at file, expanding a leading
// "~" the way the teacher's schema loader expands schema directories.
func New(file string) (*Config, error) {
	path, err := homedir.Expand(file)
	if err != nil {
		return nil, errors.Wrap(err, "config: expanding path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: reading file")
	}
	c := new(Config)
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrap(err, "config: parsing yaml")
	}
	if err := c.validateSetDefaults(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validateSetDefaults() error {
	if c.NETCONF == nil {
		return errors.New("netconf-server definition is required")
	}
	if c.NETCONF.Address == "" {
		c.NETCONF.Address = ":830"
	}
	if c.NETCONF.MaxRecvMsgSize <= 0 {
		c.NETCONF.MaxRecvMsgSize = 4 * 1024 * 1024
	}
	if c.NETCONF.Capabilities.StartupEnabled == nil {
		c.NETCONF.Capabilities.StartupEnabled = pointer.ToBool(false)
	}
	if c.NETCONF.Capabilities.URLEnabled == nil {
		c.NETCONF.Capabilities.URLEnabled = pointer.ToBool(false)
	}
	if c.NETCONF.Capabilities.WithDefaultsBasicMode == "" {
		c.NETCONF.Capabilities.WithDefaultsBasicMode = "report-all"
	}
	switch c.NETCONF.Capabilities.WithDefaultsBasicMode {
	case "report-all", "report-all-tagged", "trim", "explicit":
	default:
		return fmt.Errorf("with-defaults-basic-mode %q is not one of report-all, report-all-tagged, trim, explicit", c.NETCONF.Capabilities.WithDefaultsBasicMode)
	}

	if c.Admin == nil {
		c.Admin = &AdminServer{Address: ":8830"}
	} else if c.Admin.Address == "" {
		c.Admin.Address = ":8830"
	}

	if c.Prometheus == nil {
		c.Prometheus = &PromConfig{Address: ":9830", Path: "/metrics"}
	} else {
		if c.Prometheus.Address == "" {
			c.Prometheus.Address = ":9830"
		}
		if c.Prometheus.Path == "" {
			c.Prometheus.Path = "/metrics"
		}
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "config: invalid log-level %q", c.LogLevel)
	}
	return nil
}

// StartupEnabled reports whether the `:startup` capability is advertised.
func (c *Config) StartupEnabled() bool { return pointer.GetBool(c.NETCONF.Capabilities.StartupEnabled) }

// URLEnabled reports whether the `:url` capability is advertised.
func (c *Config) URLEnabled() bool { return pointer.GetBool(c.NETCONF.Capabilities.URLEnabled) }

// NewTLSConfig builds a *tls.Config from t, hot-reloading the cert/key
// pair with a certwatcher the way the teacher's TLS.NewConfig does.
func (t *TLS) NewTLSConfig(ctx context.Context) (*tls.Config, error) {
	tlsCfg := &tls.Config{InsecureSkipVerify: t.SkipVerify}
	if t.CA != "" {
		ca, err := os.ReadFile(t.CA)
		if err != nil {
			return nil, errors.Wrap(err, "config: reading CA cert")
		}
		pool := x509.NewCertPool()
		pool.AppendCertsFromPEM(ca)
		tlsCfg.RootCAs = pool
	}
	if t.Cert != "" && t.Key != "" {
		watcher, err := certwatcher.New(t.Cert, t.Key)
		if err != nil {
			return nil, err
		}
		go func() {
			if err := watcher.Start(ctx); err != nil && ctx.Err() == nil {
				log.Errorf("certificate watcher error: %v", err)
			}
		}()
		tlsCfg.GetCertificate = watcher.GetCertificate
	}
	return tlsCfg, nil
}
