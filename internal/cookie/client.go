package cookie

import (
	"bytes"
	"fmt"
	"log/slog"
	"net"
)

// ClientLayer implements §4.F: emitting a client cookie on outbound queries
// and validating, caching, and BADCOOKIE-recovering on inbound responses.
type ClientLayer struct {
	enabled bool
	cfg     RoleConfig
	secrets *SecretStore
	alg     ClientAlgorithm
	cache   *Cache
	log     *slog.Logger
}

func newClientLayer(cfg RoleConfig, cache *Cache, log *slog.Logger) (*ClientLayer, error) {
	if !cfg.Enabled {
		return &ClientLayer{cfg: cfg, log: log}, nil
	}
	alg, ok := ClientAlgorithmByName(cfg.CurrentAlg)
	if !ok {
		return nil, fmt.Errorf("unknown client algorithm %q", cfg.CurrentAlg)
	}
	secrets, err := buildSecretStore(cfg, alg.ID, func(name string) (int, bool) {
		a, ok := ClientAlgorithmByName(name)
		return a.ID, ok
	})
	if err != nil {
		return nil, err
	}
	return &ClientLayer{enabled: true, cfg: cfg, secrets: secrets, alg: alg, cache: cache, log: log}, nil
}

// Install rotates the client secret.
func (c *ClientLayer) Install(newSecret []byte) {
	if c.secrets == nil {
		return
	}
	c.secrets.Install(Secret{AlgID: c.alg.ID, Bytes: newSecret})
}

// OnOutbound implements §4.F's on_outbound: emit a client cookie (or reuse a
// cached option) on the outgoing OPT record.
func (c *ClientLayer) OnOutbound(req Message, upstream net.IP, upstreamPort int, plan ResolverPlan) {
	if !c.enabled || (plan != nil && plan.HasFlag(FlagUseReliableTransport)) {
		return
	}
	if !req.HasOPT() {
		return
	}
	cc, err := c.alg.Compute(ClientCookieInput{ServerAddr: upstream, Secret: c.secrets.Current().Bytes})
	if err != nil {
		c.log.Warn("client cookie unavailable", "err", err)
		return
	}
	if cached, ok := c.cache.Get(upstream, upstreamPort); ok && len(cached) >= clientCookieLen && bytes.Equal(cached[:clientCookieLen], cc[:]) {
		req.PutOption(OptionCode, cached)
		return
	}
	opt, err := EncodeOption(cc, nil)
	if err != nil {
		c.log.Warn("client cookie option encode failed", "err", err)
		return
	}
	req.PutOption(OptionCode, opt)
}

// OnInbound implements §4.F's on_inbound: validate the returned client
// cookie, update the cache, and drive the BADCOOKIE state machine.
func (c *ClientLayer) OnInbound(resp Message, upstream net.IP, upstreamPort int, plan ResolverPlan) (Disposition, error) {
	if !c.enabled || (plan != nil && plan.HasFlag(FlagUseReliableTransport)) {
		return DispositionContinue, nil
	}

	optBytes, hasOpt := resp.GetOption(OptionCode)
	if !hasOpt {
		if _, cached := c.cache.Get(upstream, upstreamPort); cached {
			return DispositionContinue, ErrCookieExpected
		}
		return DispositionContinue, nil
	}

	decoded, err := DecodeOption(optBytes)
	if err != nil {
		return DispositionContinue, ErrMalformed
	}

	current := c.secrets.Current()
	expectedCurrent, err := c.alg.Compute(ClientCookieInput{ServerAddr: upstream, Secret: current.Bytes})
	if err != nil {
		c.log.Warn("client cookie unavailable", "err", err)
		return DispositionContinue, nil
	}
	matchedCurrent := bytes.Equal(expectedCurrent[:], decoded.Client[:])
	matchedRecent := false
	if !matchedCurrent {
		if recent, ok := c.secrets.Recent(); ok {
			expectedRecent, rErr := c.alg.Compute(ClientCookieInput{ServerAddr: upstream, Secret: recent.Bytes})
			matchedRecent = rErr == nil && bytes.Equal(expectedRecent[:], decoded.Client[:])
		}
	}
	if !matchedCurrent && !matchedRecent {
		return DispositionContinue, ErrCookieMismatch
	}

	if matchedCurrent && decoded.Server != nil {
		if err := c.cache.Put(upstream, upstreamPort, optBytes); err != nil {
			c.log.Warn("cookie cache put failed", "err", err)
		}
	}

	if resp.Rcode() == ExtendedRcodeBadCookie && plan != nil {
		if !plan.HasFlag(FlagBadCookieAgain) {
			if err := plan.EnqueueRepeat(); err == nil {
				plan.SetFlag(FlagBadCookieAgain)
			}
		} else {
			plan.ClearFlag(FlagBadCookieAgain)
			plan.SetFlag(FlagUseReliableTransport)
		}
		return DispositionConsume, nil
	}

	return DispositionContinue, nil
}
