package ncerr_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openncd/netconfd/internal/ncerr"
)

func TestLockDeniedCarriesHolder(t *testing.T) {
	e := ncerr.LockDenied("sess-7")
	require.NotNil(t, e.Info)
	assert.Equal(t, "sess-7", e.Info.SessionID)
	assert.Equal(t, ncerr.TypeProtocol, e.Type)
	assert.Equal(t, "lock-denied", e.Tag)
}

func TestAsRPCErrorWrapsUnknownErrors(t *testing.T) {
	err := errors.WithStack(errors.New("back end exploded"))
	got := ncerr.AsRPCError(err)
	assert.Equal(t, "operation-failed", got.Tag)
	assert.Contains(t, got.Message, "back end exploded")
}

func TestAsRPCErrorPassesThroughExisting(t *testing.T) {
	orig := ncerr.DataExists(ncerr.WithPath("/foo:x[key='k']"))
	got := ncerr.AsRPCError(orig)
	assert.Same(t, orig, got)
}

func TestUnknownNamespaceCarriesElementAndNamespace(t *testing.T) {
	e := ncerr.UnknownNamespace("interfaces", "urn:bogus")
	require.NotNil(t, e.Info)
	assert.Equal(t, "interfaces", e.Info.BadElement)
	assert.Equal(t, "urn:bogus", e.Info.BadNamespace)
	assert.Equal(t, "invalid-value", e.Tag)
}
