// Package identity derives a stable pseudonymous key for a connection.
//
// The key is a keyed hash of the client's address and user agent, so the
// same browser on the same network maps to the same identity across
// reconnects. It is not authentication: two people behind one address with
// an identical user agent share an identity and will evict each other's
// session.
package identity

import (
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Identity is 32 lowercase hex characters.
type Identity string

// Size is the hash length in bytes before hex encoding.
const Size = 16

const unknownSignature = "unknown"

type Metadata struct {
	Address         string
	ClientSignature string
}

type Resolver struct {
	key [32]byte
}

func NewResolver(secret string) *Resolver {
	return &Resolver{key: blake2b.Sum256([]byte(secret))}
}

func (r *Resolver) Resolve(m Metadata) Identity {
	sig := m.ClientSignature
	if sig == "" {
		sig = unknownSignature
	}

	// New only fails for an invalid size or a key longer than 64 bytes.
	h, err := blake2b.New(Size, r.key[:])
	if err != nil {
		panic(err)
	}
	h.Write([]byte(m.Address))
	h.Write([]byte{':'})
	h.Write([]byte(sig))
	return Identity(hex.EncodeToString(h.Sum(nil)))
}

// FromRequest reads the client address (without port) and user agent.
// With trustProxy the first X-Forwarded-For hop wins over RemoteAddr.
func FromRequest(r *http.Request, trustProxy bool) Metadata {
	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if first = strings.TrimSpace(first); first != "" {
				addr = first
			}
		}
	}
	return Metadata{Address: addr, ClientSignature: r.UserAgent()}
}
