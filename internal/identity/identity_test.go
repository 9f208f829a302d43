package identity

import (
	"encoding/hex"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_DeterministicAndFixedLength(t *testing.T) {
	r := NewResolver("secret")
	m := Metadata{Address: "10.0.0.1", ClientSignature: "Mozilla/5.0"}

	a := r.Resolve(m)
	b := r.Resolve(m)
	assert.Equal(t, a, b)
	assert.Len(t, string(a), 32)

	_, err := hex.DecodeString(string(a))
	require.NoError(t, err)
}

func TestResolve_DistinguishesInputs(t *testing.T) {
	r := NewResolver("secret")
	base := r.Resolve(Metadata{Address: "10.0.0.1", ClientSignature: "UA"})

	assert.NotEqual(t, base, r.Resolve(Metadata{Address: "10.0.0.2", ClientSignature: "UA"}))
	assert.NotEqual(t, base, r.Resolve(Metadata{Address: "10.0.0.1", ClientSignature: "UA2"}))
	assert.NotEqual(t, base, NewResolver("other").Resolve(Metadata{Address: "10.0.0.1", ClientSignature: "UA"}))
}

func TestResolve_EmptySignatureIsUnknown(t *testing.T) {
	r := NewResolver("")
	assert.Equal(t,
		r.Resolve(Metadata{Address: "::1", ClientSignature: "unknown"}),
		r.Resolve(Metadata{Address: "::1"}))
}

// Two different people on one NAT with the same browser build collapse into
// one identity. This is an accepted limitation of connection-derived identity.
func TestResolve_SharedAddressAndSignatureCollide(t *testing.T) {
	r := NewResolver("secret")
	alice := Metadata{Address: "203.0.113.7", ClientSignature: "Mozilla/5.0 (X11; Linux x86_64)"}
	bob := Metadata{Address: "203.0.113.7", ClientSignature: "Mozilla/5.0 (X11; Linux x86_64)"}

	assert.Equal(t, r.Resolve(alice), r.Resolve(bob))
}

func TestFromRequest(t *testing.T) {
	cases := []struct {
		name       string
		remote     string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{name: "strips port", remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "ipv6", remote: "[::1]:80", want: "::1"},
		{name: "ignores proxy header by default", remote: "192.0.2.1:5555", forwarded: "198.51.100.2", want: "192.0.2.1"},
		{name: "trusted proxy header", remote: "192.0.2.1:5555", forwarded: "198.51.100.2, 10.0.0.1", trustProxy: true, want: "198.51.100.2"},
		{name: "blank proxy header", remote: "192.0.2.1:5555", forwarded: " ,", trustProxy: true, want: "192.0.2.1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ws", nil)
			req.RemoteAddr = tc.remote
			req.Header.Set("User-Agent", "test-agent")
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}

			m := FromRequest(req, tc.trustProxy)
			assert.Equal(t, tc.want, m.Address)
			assert.Equal(t, "test-agent", m.ClientSignature)
		})
	}
}
