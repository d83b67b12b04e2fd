package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openncd/netconfd/internal/value"
)

// TestRoundTrip covers spec.md invariant 4: marshalling a leaf to a
// tagged value and back yields the original canonical string for every
// supported base type.
func TestRoundTrip(t *testing.T) {
	cases := []struct {
		baseType string
		in       string
		fd       uint8
	}{
		{"string", "iface1/1", 0},
		{"boolean", "true", 0},
		{"boolean", "false", 0},
		{"int8", "-42", 0},
		{"uint32", "4294967295", 0},
		{"decimal64", "3.14", 2},
		{"decimal64", "-0.500", 3},
		{"enum", "up", 0},
		{"empty", "", 0},
		{"identityref", "iana-if-type:ethernetCsmacd", 0},
		{"identityref", "ethernetCsmacd", 0},
		{"instance-identifier", "/ietf-interfaces:interfaces/interface[name='eth0']", 0},
		{"bits", "urgent  low", 0},
		{"binary", "aGVsbG8=", 0},
	}
	for _, c := range cases {
		v, err := value.FromLeafString(c.baseType, c.in, c.fd)
		require.NoError(t, err, c.baseType)
		out, err := value.ToCanonicalString(v)
		require.NoError(t, err, c.baseType)
		if c.baseType == "bits" {
			assert.Equal(t, "urgent low", out)
			continue
		}
		assert.Equal(t, c.in, out, c.baseType)
	}
}

func TestDecimal64FractionDigitsEnforced(t *testing.T) {
	_, err := value.FromLeafString("decimal64", "1.2345", 2)
	assert.Error(t, err)
}

func TestIdentityrefForeignModule(t *testing.T) {
	v, err := value.FromLeafString("identityref", "iana-if-type:ethernetCsmacd", 0)
	require.NoError(t, err)
	assert.Equal(t, "iana-if-type", v.IdentityModule)
	assert.Equal(t, "ethernetCsmacd", v.IdentityName)
}
