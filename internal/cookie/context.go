package cookie

import (
	"fmt"
	"log/slog"
)

// RoleConfig is the per-role (client or server) slice of the configuration
// snapshot described in §6.
type RoleConfig struct {
	Enabled       bool   `json:"enabled"`
	CurrentAlg    string `json:"current_alg"`
	CurrentSecret []byte `json:"current_secret"`
	RecentAlg     string `json:"recent_alg,omitempty"`
	RecentSecret  []byte `json:"recent_secret,omitempty"`
}

// Config is the typed configuration snapshot the core consumes (§6). The
// configuration-document codec and any dynamic-configuration RPC that
// produce this value are out of scope for this package.
type Config struct {
	Client        RoleConfig `json:"client"`
	Server        RoleConfig `json:"server"`
	CacheCapacity uint32     `json:"cache_capacity"`
}

// Engine is the per-process CookieContext: it owns the shared cache and
// exposes the independently-enableable client and server layers. It replaces
// the process-wide singleton the grounding source uses (SPEC_FULL.md §9).
type Engine struct {
	client *ClientLayer
	server *ServerLayer
	cache  *Cache
}

// NewEngine builds an Engine from a configuration snapshot. log may be nil,
// in which case slog.Default() is used.
func NewEngine(cfg Config, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	cache := NewCache(int(cfg.CacheCapacity))

	client, err := newClientLayer(cfg.Client, cache, log.With("layer", "cookie-client"))
	if err != nil {
		return nil, fmt.Errorf("cookie: init client layer: %w", err)
	}
	server, err := newServerLayer(cfg.Server, log.With("layer", "cookie-server"))
	if err != nil {
		return nil, fmt.Errorf("cookie: init server layer: %w", err)
	}
	return &Engine{client: client, server: server, cache: cache}, nil
}

// Client returns the client-role layer.
func (e *Engine) Client() *ClientLayer { return e.client }

// Server returns the server-role layer.
func (e *Engine) Server() *ServerLayer { return e.server }

// Cache returns the shared client-cookie cache, mostly useful for tests and
// diagnostics.
func (e *Engine) Cache() *Cache { return e.cache }

// buildSecretStore constructs a SecretStore from a role's configuration
// snapshot. currentID is the already-resolved algorithm id for
// cfg.CurrentAlg; lookupID resolves cfg.RecentAlg by name when it differs
// from the current algorithm (rotations may cross algorithm families).
func buildSecretStore(cfg RoleConfig, currentID int, lookupID func(name string) (int, bool)) (*SecretStore, error) {
	if len(cfg.CurrentSecret) == 0 {
		return nil, ErrNoSecret
	}
	store := NewSecretStore(Secret{AlgID: currentID, Bytes: cfg.CurrentSecret})
	if len(cfg.RecentSecret) > 0 {
		recentID := currentID
		if cfg.RecentAlg != "" {
			if id, ok := lookupID(cfg.RecentAlg); ok {
				recentID = id
			}
		}
		store.seedRecent(Secret{AlgID: recentID, Bytes: cfg.RecentSecret})
	}
	return store, nil
}
