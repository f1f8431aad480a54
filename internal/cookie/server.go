package cookie

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/quietdns/resolver/internal/random"
)

// RandomSource is the §6 "Random" collaborator: u32_uniform().
type RandomSource interface {
	Uint32() uint32
}

// Clock is the §6 "Clock" collaborator: now_seconds().
type Clock interface {
	NowSeconds() uint32
}

// ServerLayer implements §4.G: validating an inbound server cookie and
// attaching a fresh one to the outgoing answer.
type ServerLayer struct {
	enabled bool
	cfg     RoleConfig
	secrets *SecretStore
	alg     ServerAlgorithm
	rnd     RandomSource
	clock   Clock
	log     *slog.Logger
}

func newServerLayer(cfg RoleConfig, log *slog.Logger) (*ServerLayer, error) {
	if !cfg.Enabled {
		return &ServerLayer{cfg: cfg, log: log}, nil
	}
	alg, ok := ServerAlgorithmByName(cfg.CurrentAlg)
	if !ok {
		return nil, fmt.Errorf("unknown server algorithm %q", cfg.CurrentAlg)
	}
	secrets, err := buildSecretStore(cfg, alg.ID, func(name string) (int, bool) {
		a, ok := ServerAlgorithmByName(name)
		return a.ID, ok
	})
	if err != nil {
		return nil, err
	}
	return &ServerLayer{
		enabled: true,
		cfg:     cfg,
		secrets: secrets,
		alg:     alg,
		rnd:     defaultRandomSource{},
		clock:   defaultClock{},
		log:     log,
	}, nil
}

// Install rotates the server secret.
func (s *ServerLayer) Install(newSecret []byte) {
	if s.secrets == nil {
		return
	}
	s.secrets.Install(Secret{AlgID: s.alg.ID, Bytes: newSecret})
}

// SetCollaborators overrides the random source and clock, mainly for tests
// that need deterministic nonce/time values.
func (s *ServerLayer) SetCollaborators(rnd RandomSource, clock Clock) {
	s.rnd = rnd
	s.clock = clock
}

// OnRequest implements §4.G's on_request.
func (s *ServerLayer) OnRequest(req Message, resp Message, clientAddr net.IP) (Disposition, error) {
	if !s.enabled {
		resp.RemoveOption(OptionCode)
		return DispositionContinue, nil
	}

	optBytes, hasOpt := req.GetOption(OptionCode)
	if !hasOpt {
		return DispositionContinue, nil
	}

	decoded, err := DecodeOption(optBytes)
	if err != nil {
		resp.SetRcode(RcodeFormErr)
		return DispositionDone, ErrMalformed
	}

	qdcount := req.QuestionCount()
	current := s.secrets.Current()

	attachFresh := func() {
		nonce := s.rnd.Uint32()
		seconds := s.clock.NowSeconds()
		input := ServerCookieInput{
			ClientAddr:   clientAddr,
			ClientCookie: decoded.Client,
			Nonce:        nonce,
			Time:         seconds,
			Secret:       current.Bytes,
		}
		framed, err := FrameServerCookie(s.alg, input, true)
		if err != nil {
			s.log.Warn("server cookie unavailable", "err", err)
			return
		}
		opt, err := EncodeOption(decoded.Client, framed)
		if err != nil {
			s.log.Warn("server cookie option encode failed", "err", err)
			return
		}
		resp.RemoveOption(OptionCode)
		resp.PutOption(OptionCode, opt)
	}

	if decoded.Server == nil {
		// No server cookie supplied.
		if qdcount == 0 {
			attachFresh()
			return DispositionDone, nil
		}
		// Default policy: accept-for-now and attach a fresh cookie.
		attachFresh()
		return DispositionContinue, nil
	}

	verifyInput := ServerCookieInput{ClientAddr: clientAddr, ClientCookie: decoded.Client, Secret: current.Bytes}
	ok := VerifyServerCookie(s.alg, verifyInput, decoded.Server)
	if !ok {
		if recent, hasRecent := s.secrets.Recent(); hasRecent {
			verifyInput.Secret = recent.Bytes
			ok = VerifyServerCookie(s.alg, verifyInput, decoded.Server)
		}
	}

	if !ok {
		// Default policy for both qdcount==0 and qdcount>0: BADCOOKIE.
		resp.SetRcode(ExtendedRcodeBadCookie)
		attachFresh()
		return DispositionDone, nil
	}

	attachFresh()
	return DispositionContinue, nil
}

type defaultRandomSource struct{}

func (defaultRandomSource) Uint32() uint32 { return random.Uint32() }

type defaultClock struct{}

func (defaultClock) NowSeconds() uint32 { return uint32(time.Now().Unix()) }
