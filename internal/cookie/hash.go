package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"hash/fnv"
	"net"
)

// Algorithm identifiers. Stable small integers, process-lifetime.
const (
	AlgFNV64         = 0
	AlgHMACSHA256_64 = 1
)

// ClientCookieInput is the input to a client-cookie compute function.
// At least one of ClientAddr, ServerAddr must be non-nil.
type ClientCookieInput struct {
	ClientAddr net.IP
	ServerAddr net.IP
	Secret     []byte
}

// ServerCookieInput is the input to a server-cookie compute function.
// ClientAddr and ClientCookie are always required; Nonce/Time only matter
// when the "full" shape is requested.
type ServerCookieInput struct {
	ClientAddr   net.IP
	ClientCookie [8]byte
	Nonce        uint32
	Time         uint32
	Secret       []byte
}

// ClientComputeFunc computes an 8-octet client cookie.
type ClientComputeFunc func(ClientCookieInput) ([8]byte, error)

// ServerComputeFunc computes an 8-octet server-cookie hash. full selects
// whether the nonce/time block is mixed into the hash input.
type ServerComputeFunc func(in ServerCookieInput, full bool) ([8]byte, error)

// addrBytes returns the wire-form address bytes: 4 octets for IPv4, 16 for
// IPv6, nil if ip is nil. No family tag, no port, matching §4.B.
func addrBytes(ip net.IP) []byte {
	if ip == nil {
		return nil
	}
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	return ip.To16()
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

func fnv64Sum(parts ...[]byte) [8]byte {
	h := fnv.New64a()
	for _, p := range parts {
		if len(p) > 0 {
			h.Write(p)
		}
	}
	var out [8]byte
	binary.BigEndian.PutUint64(out[:], h.Sum64())
	return out
}

func hmacSHA256Truncated(secret []byte, parts ...[]byte) [8]byte {
	mac := hmac.New(sha256.New, secret)
	for _, p := range parts {
		if len(p) > 0 {
			mac.Write(p)
		}
	}
	sum := mac.Sum(nil)
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

func nonceTimeBytes(nonce, seconds uint32) [4 + 4]byte {
	var out [8]byte
	binary.BigEndian.PutUint32(out[0:4], nonce)
	binary.BigEndian.PutUint32(out[4:8], seconds)
	return out
}

// fnv64ClientCompute implements "Client cookie — FNV-64" from §4.B:
// cc = fnv1a_64(client_addr? ∥ server_addr? ∥ secret).
func fnv64ClientCompute(in ClientCookieInput) ([8]byte, error) {
	if len(in.Secret) == 0 {
		return [8]byte{}, ErrNoSecret
	}
	ca, sa := addrBytes(in.ClientAddr), addrBytes(in.ServerAddr)
	if len(ca) == 0 && len(sa) == 0 {
		return [8]byte{}, errMissingAddress
	}
	return fnv64Sum(ca, sa, in.Secret), nil
}

// hmacClientCompute implements "Client cookie — HMAC-SHA256-64" from §4.B:
// cc = truncate8(HMAC_SHA256(secret, client_addr? ∥ server_addr?)).
func hmacClientCompute(in ClientCookieInput) ([8]byte, error) {
	if len(in.Secret) == 0 {
		return [8]byte{}, ErrNoSecret
	}
	ca, sa := addrBytes(in.ClientAddr), addrBytes(in.ServerAddr)
	if len(ca) == 0 && len(sa) == 0 {
		return [8]byte{}, errMissingAddress
	}
	return hmacSHA256Truncated(in.Secret, ca, sa), nil
}

// fnvServerCompute implements both FNV-64 server-cookie variants from §4.B.
// full=false: sc_hash = fnv1a_64(client_addr ∥ client_cookie ∥ secret).
// full=true:  sc_hash = fnv1a_64(client_addr ∥ nonce ∥ time ∥ client_cookie ∥ secret).
func fnvServerCompute(in ServerCookieInput, full bool) ([8]byte, error) {
	if len(in.Secret) == 0 {
		return [8]byte{}, ErrNoSecret
	}
	addr := addrBytes(in.ClientAddr)
	if len(addr) == 0 {
		return [8]byte{}, errMissingAddress
	}
	if !full {
		return fnv64Sum(addr, in.ClientCookie[:], in.Secret), nil
	}
	nt := nonceTimeBytes(in.Nonce, in.Time)
	return fnv64Sum(addr, nt[:], in.ClientCookie[:], in.Secret), nil
}

// hmacServerCompute implements both HMAC-SHA256-64 server-cookie variants
// from §4.B.
// full=false: sc_hash = truncate8(HMAC_SHA256(secret, client_cookie ∥ client_addr)).
// full=true:  sc_hash = truncate8(HMAC_SHA256(secret, client_cookie ∥ nonce ∥ time ∥ client_addr)).
func hmacServerCompute(in ServerCookieInput, full bool) ([8]byte, error) {
	if len(in.Secret) == 0 {
		return [8]byte{}, ErrNoSecret
	}
	addr := addrBytes(in.ClientAddr)
	if len(addr) == 0 {
		return [8]byte{}, errMissingAddress
	}
	if !full {
		return hmacSHA256Truncated(in.Secret, in.ClientCookie[:], addr), nil
	}
	nt := nonceTimeBytes(in.Nonce, in.Time)
	return hmacSHA256Truncated(in.Secret, in.ClientCookie[:], nt[:], addr), nil
}

// FrameServerCookie computes the hash via alg and frames it per the full/
// simple shape: full prepends the 8-octet nonce∥time block, simple is just
// the bare hash.
func FrameServerCookie(alg ServerAlgorithm, in ServerCookieInput, full bool) ([]byte, error) {
	hashPart, err := alg.Compute(in, full)
	if err != nil {
		return nil, err
	}
	if !full {
		return append([]byte(nil), hashPart[:]...), nil
	}
	nb := EncodeNonceBlock(in.Nonce, in.Time)
	out := make([]byte, 0, nonceTimeLen+8)
	out = append(out, nb[:]...)
	out = append(out, hashPart[:]...)
	return out, nil
}

// VerifyServerCookie recomputes the hash for supplied (inferring simple vs.
// full from its length) under in.Secret and constant-time compares it against
// the hash part of supplied.
func VerifyServerCookie(alg ServerAlgorithm, in ServerCookieInput, supplied []byte) bool {
	full := len(supplied) > 8
	var hashPart []byte
	if full {
		if len(supplied) < nonceTimeLen+8 {
			return false
		}
		var nb [nonceTimeLen]byte
		copy(nb[:], supplied[:nonceTimeLen])
		nonce, seconds := DecodeNonceBlock(nb)
		in.Nonce, in.Time = nonce, seconds
		hashPart = supplied[nonceTimeLen : nonceTimeLen+8]
	} else {
		hashPart = supplied
	}
	expected, err := alg.Compute(in, full)
	if err != nil {
		return false
	}
	return constantTimeEqual(expected[:], hashPart)
}
