package cookie

import "encoding/binary"

// EDNS COOKIE option code, RFC 7873.
const OptionCode = 10

// ExtendedRcodeBadCookie is the extended RCODE defined by RFC 7873 §8.
const ExtendedRcodeBadCookie = 23

// RcodeFormErr mirrors the ordinary FORMERR response code (1). Kept as a local
// constant rather than importing a DNS message library into this package.
const RcodeFormErr = 1

const (
	clientCookieLen  = 8
	minServerCookie  = 8
	maxServerCookie  = 32
	maxOptionValue   = clientCookieLen + maxServerCookie
	nonceTimeLen     = 8
)

// Option is the decoded form of an EDNS COOKIE option value.
type Option struct {
	Client [8]byte
	Server []byte // nil for a client-only option, else 8..32 octets.
}

// EncodeOption produces the option value bytes for client and (optional)
// server cookie. server may be nil.
func EncodeOption(client [8]byte, server []byte) ([]byte, error) {
	if server != nil {
		switch len(server) {
		case 8, 16, 24, 32:
		default:
			return nil, ErrMalformed
		}
	}
	out := make([]byte, clientCookieLen+len(server))
	copy(out, client[:])
	copy(out[clientCookieLen:], server)
	return out, nil
}

// DecodeOption parses a raw option value. Only lengths 8, 16, 24, and 32 are
// valid; anything else is Malformed.
func DecodeOption(b []byte) (Option, error) {
	switch len(b) {
	case 8, 16, 24, 32:
	default:
		return Option{}, ErrMalformed
	}
	var opt Option
	copy(opt.Client[:], b[:clientCookieLen])
	if len(b) > clientCookieLen {
		opt.Server = append([]byte(nil), b[clientCookieLen:]...)
	}
	return opt, nil
}

// EncodeNonceBlock writes the 4-octet nonce followed by the 4-octet
// timestamp, both big-endian, per the server-cookie full shape.
func EncodeNonceBlock(nonce, seconds uint32) [nonceTimeLen]byte {
	var out [nonceTimeLen]byte
	binary.BigEndian.PutUint32(out[0:4], nonce)
	binary.BigEndian.PutUint32(out[4:8], seconds)
	return out
}

// DecodeNonceBlock is the inverse of EncodeNonceBlock.
func DecodeNonceBlock(b [nonceTimeLen]byte) (nonce, seconds uint32) {
	return binary.BigEndian.Uint32(b[0:4]), binary.BigEndian.Uint32(b[4:8])
}
