package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openncd/netconfd/internal/metrics"
)

func TestObserveRPCCountsSuccessAndError(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.New(reg)

	r.ObserveRPC("get", nil, time.Millisecond)
	r.ObserveRPC("get", errors.New("boom"), time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
	var found bool
	for _, f := range families {
		if f.GetName() == "netconfd_rpc_total" {
			found = true
			require.Len(t, f.GetMetric(), 2)
			for _, m := range f.GetMetric() {
				assert.Equal(t, float64(1), m.GetCounter().GetValue())
			}
		}
	}
	assert.True(t, found)
}

func TestIncLockDeniedIncrements(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.New(reg)

	r.IncLockDenied()
	r.IncLockDenied()

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "netconfd_lock_denied_total" {
			found = true
			require.Len(t, f.GetMetric(), 1)
			assert.Equal(t, float64(2), f.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found)
}

func TestIncEditErrorLabelsByTag(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.New(reg)

	r.IncEditError("data-exists")
	r.IncEditError("data-exists")
	r.IncEditError("data-missing")

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "netconfd_edit_config_errors_total" {
			require.Len(t, f.GetMetric(), 2)
		}
	}
}

func TestSetActiveSessions(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.New(reg)
	r.SetActiveSessions(3)

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "netconfd_active_sessions" {
			require.Len(t, f.GetMetric(), 1)
			assert.Equal(t, float64(3), f.GetMetric()[0].GetGauge().GetValue())
		}
	}
}
