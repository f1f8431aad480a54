package cookie

import (
	"bytes"
	"net"
	"testing"
)

// TestFNV64ClientComputeVector pins the client-cookie output for a fixed
// address and an all-zero secret: fnv1a_64(198.51.100.1 ∥ 00*8).
func TestFNV64ClientComputeVector(t *testing.T) {
	secret := make([]byte, 8)
	in := ClientCookieInput{
		ClientAddr: net.ParseIP("198.51.100.1"),
		Secret:     secret,
	}
	got, err := fnv64ClientCompute(in)
	if err != nil {
		t.Fatalf("fnv64ClientCompute() error = %v", err)
	}
	want := [8]byte{0x5d, 0x63, 0xd5, 0x4d, 0xb4, 0xa9, 0xe9, 0x7d}
	if got != want {
		t.Errorf("fnv64ClientCompute() = %x, want %x", got, want)
	}
}

func TestClientComputeRequiresSecret(t *testing.T) {
	for _, alg := range clientAlgorithms {
		t.Run(alg.Name, func(t *testing.T) {
			_, err := alg.Compute(ClientCookieInput{ServerAddr: net.ParseIP("198.51.100.1")})
			if err != ErrNoSecret {
				t.Errorf("Compute() error = %v, want ErrNoSecret", err)
			}
		})
	}
}

func TestClientComputeRequiresAddress(t *testing.T) {
	for _, alg := range clientAlgorithms {
		t.Run(alg.Name, func(t *testing.T) {
			_, err := alg.Compute(ClientCookieInput{Secret: []byte("secret")})
			if err != errMissingAddress {
				t.Errorf("Compute() error = %v, want errMissingAddress", err)
			}
		})
	}
}

func TestClientComputeIsAddressSensitive(t *testing.T) {
	secret := []byte("a-shared-secret-value")
	for _, alg := range clientAlgorithms {
		t.Run(alg.Name, func(t *testing.T) {
			a, err := alg.Compute(ClientCookieInput{ServerAddr: net.ParseIP("198.51.100.1"), Secret: secret})
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			b, err := alg.Compute(ClientCookieInput{ServerAddr: net.ParseIP("198.51.100.2"), Secret: secret})
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if a == b {
				t.Errorf("Compute() produced identical cookies for distinct server addresses")
			}
		})
	}
}

func TestClientComputeIsSecretSensitive(t *testing.T) {
	addr := net.ParseIP("198.51.100.1")
	for _, alg := range clientAlgorithms {
		t.Run(alg.Name, func(t *testing.T) {
			a, err := alg.Compute(ClientCookieInput{ServerAddr: addr, Secret: []byte("secret-one")})
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			b, err := alg.Compute(ClientCookieInput{ServerAddr: addr, Secret: []byte("secret-two")})
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if a == b {
				t.Errorf("Compute() produced identical cookies for distinct secrets")
			}
		})
	}
}

func TestServerCookieRoundTripSimpleAndFull(t *testing.T) {
	addr := net.ParseIP("198.51.100.1")
	clientCookie := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	secret := []byte("server-secret-value")

	for _, alg := range serverAlgorithms {
		for _, full := range []bool{false, true} {
			t.Run(alg.Name, func(t *testing.T) {
				in := ServerCookieInput{
					ClientAddr:   addr,
					ClientCookie: clientCookie,
					Nonce:        0x11223344,
					Time:         0x55667788,
					Secret:       secret,
				}
				framed, err := FrameServerCookie(alg, in, full)
				if err != nil {
					t.Fatalf("FrameServerCookie() error = %v", err)
				}
				wantLen := 8
				if full {
					wantLen = 16
				}
				if len(framed) != wantLen {
					t.Fatalf("FrameServerCookie() len = %d, want %d", len(framed), wantLen)
				}
				if !VerifyServerCookie(alg, in, framed) {
					t.Errorf("VerifyServerCookie() = false, want true")
				}
			})
		}
	}
}

func TestVerifyServerCookieRejectsTamperedInput(t *testing.T) {
	addr := net.ParseIP("198.51.100.1")
	clientCookie := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	secret := []byte("server-secret-value")

	alg, _ := ServerAlgorithmByName("FNV-64")
	in := ServerCookieInput{ClientAddr: addr, ClientCookie: clientCookie, Secret: secret}
	framed, err := FrameServerCookie(alg, in, false)
	if err != nil {
		t.Fatalf("FrameServerCookie() error = %v", err)
	}

	other := ServerCookieInput{ClientAddr: net.ParseIP("198.51.100.2"), ClientCookie: clientCookie, Secret: secret}
	if VerifyServerCookie(alg, other, framed) {
		t.Error("VerifyServerCookie() accepted a cookie for the wrong client address")
	}

	tampered := append([]byte(nil), framed...)
	tampered[0] ^= 0xff
	if VerifyServerCookie(alg, in, tampered) {
		t.Error("VerifyServerCookie() accepted a tampered cookie")
	}
}

func TestVerifyServerCookieToleratesSecretRotation(t *testing.T) {
	addr := net.ParseIP("198.51.100.1")
	clientCookie := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	alg, _ := ServerAlgorithmByName("HMAC-SHA256-64")

	oldSecret := []byte("old-secret-value")
	newSecret := []byte("new-secret-value")

	framed, err := FrameServerCookie(alg, ServerCookieInput{ClientAddr: addr, ClientCookie: clientCookie, Secret: oldSecret}, false)
	if err != nil {
		t.Fatalf("FrameServerCookie() error = %v", err)
	}

	if VerifyServerCookie(alg, ServerCookieInput{ClientAddr: addr, ClientCookie: clientCookie, Secret: newSecret}, framed) {
		t.Fatal("VerifyServerCookie() unexpectedly accepted under the new secret alone")
	}
	if !VerifyServerCookie(alg, ServerCookieInput{ClientAddr: addr, ClientCookie: clientCookie, Secret: oldSecret}, framed) {
		t.Fatal("VerifyServerCookie() should still accept under the old (recent) secret")
	}
}

func TestRegistryLookups(t *testing.T) {
	if _, ok := ClientAlgorithmByName("FNV-64"); !ok {
		t.Error(`ClientAlgorithmByName("FNV-64") not found`)
	}
	if _, ok := ClientAlgorithmByName("HMAC-SHA256-64"); !ok {
		t.Error(`ClientAlgorithmByName("HMAC-SHA256-64") not found`)
	}
	if _, ok := ClientAlgorithmByName("does-not-exist"); ok {
		t.Error(`ClientAlgorithmByName("does-not-exist") unexpectedly found`)
	}
	if a, ok := ClientAlgorithmByID(AlgFNV64); !ok || a.Name != "FNV-64" {
		t.Errorf("ClientAlgorithmByID(AlgFNV64) = %+v, %v", a, ok)
	}
	if _, ok := ServerAlgorithmByName("FNV-64"); !ok {
		t.Error(`ServerAlgorithmByName("FNV-64") not found`)
	}
	if a, ok := ServerAlgorithmByID(AlgHMACSHA256_64); !ok || a.Name != "HMAC-SHA256-64" {
		t.Errorf("ServerAlgorithmByID(AlgHMACSHA256_64) = %+v, %v", a, ok)
	}
}

func TestConstantTimeEqual(t *testing.T) {
	a := []byte{1, 2, 3}
	b := []byte{1, 2, 3}
	c := []byte{1, 2, 4}
	if !constantTimeEqual(a, b) {
		t.Error("constantTimeEqual(a, b) = false, want true")
	}
	if constantTimeEqual(a, c) {
		t.Error("constantTimeEqual(a, c) = true, want false")
	}
	if constantTimeEqual(a, append(b, 0)) {
		t.Error("constantTimeEqual() should reject differing lengths")
	}
}

func TestAddrBytesFamilyShapes(t *testing.T) {
	v4 := addrBytes(net.ParseIP("198.51.100.1"))
	if len(v4) != 4 {
		t.Errorf("addrBytes(v4) len = %d, want 4", len(v4))
	}
	v6 := addrBytes(net.ParseIP("2001:db8::1"))
	if len(v6) != 16 {
		t.Errorf("addrBytes(v6) len = %d, want 16", len(v6))
	}
	if addrBytes(nil) != nil {
		t.Error("addrBytes(nil) should be nil")
	}
}

func TestFrameServerCookieNoSecret(t *testing.T) {
	alg, _ := ServerAlgorithmByName("FNV-64")
	_, err := FrameServerCookie(alg, ServerCookieInput{ClientAddr: net.ParseIP("198.51.100.1")}, false)
	if err != ErrNoSecret {
		t.Errorf("FrameServerCookie() error = %v, want ErrNoSecret", err)
	}
}

func TestVerifyServerCookieRejectsShortFullInput(t *testing.T) {
	alg, _ := ServerAlgorithmByName("FNV-64")
	in := ServerCookieInput{ClientAddr: net.ParseIP("198.51.100.1"), Secret: []byte("secret")}
	if VerifyServerCookie(alg, in, bytes.Repeat([]byte{1}, 12)) {
		t.Error("VerifyServerCookie() accepted an undersized full-shape cookie")
	}
}
