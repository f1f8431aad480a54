package cookie

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeOptionRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		client [8]byte
		server []byte
	}{
		{"client only", [8]byte{1, 2, 3, 4, 5, 6, 7, 8}, nil},
		{"simple server cookie", [8]byte{1, 2, 3, 4, 5, 6, 7, 8}, bytes.Repeat([]byte{0xaa}, 8)},
		{"full server cookie", [8]byte{1, 2, 3, 4, 5, 6, 7, 8}, bytes.Repeat([]byte{0xbb}, 16)},
		{"max server cookie", [8]byte{1, 2, 3, 4, 5, 6, 7, 8}, bytes.Repeat([]byte{0xcc}, 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeOption(tt.client, tt.server)
			if err != nil {
				t.Fatalf("EncodeOption() error = %v", err)
			}
			decoded, err := DecodeOption(encoded)
			if err != nil {
				t.Fatalf("DecodeOption() error = %v", err)
			}
			if decoded.Client != tt.client {
				t.Errorf("Client = %v, want %v", decoded.Client, tt.client)
			}
			if !bytes.Equal(decoded.Server, tt.server) {
				t.Errorf("Server = %v, want %v", decoded.Server, tt.server)
			}
		})
	}
}

func TestEncodeOptionRejectsBadServerLength(t *testing.T) {
	_, err := EncodeOption([8]byte{}, make([]byte, 12))
	if err != ErrMalformed {
		t.Fatalf("EncodeOption() error = %v, want ErrMalformed", err)
	}
}

func TestDecodeOptionRejectsBadLength(t *testing.T) {
	for _, n := range []int{0, 4, 7, 9, 20, 33, 40} {
		_, err := DecodeOption(make([]byte, n))
		if err != ErrMalformed {
			t.Errorf("DecodeOption(len=%d) error = %v, want ErrMalformed", n, err)
		}
	}
}

func TestNonceBlockRoundTrip(t *testing.T) {
	nonce, seconds := uint32(0xdeadbeef), uint32(0x01020304)
	block := EncodeNonceBlock(nonce, seconds)
	gotNonce, gotSeconds := DecodeNonceBlock(block)
	if gotNonce != nonce || gotSeconds != seconds {
		t.Errorf("DecodeNonceBlock() = (%x, %x), want (%x, %x)", gotNonce, gotSeconds, nonce, seconds)
	}
}
