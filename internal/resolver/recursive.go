package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/quietdns/resolver/internal/cache"
	"github.com/quietdns/resolver/internal/cookie"
	"github.com/quietdns/resolver/internal/packet"
	"github.com/quietdns/resolver/internal/pool"
	"github.com/quietdns/resolver/internal/random"
	"github.com/quietdns/resolver/internal/rrl"
	"github.com/quietdns/resolver/internal/worker"
	"github.com/miekg/dns"
)

// maxCookieAttempts bounds the local retry loop queryNameserver uses to
// realize cookie.ResolverPlan.EnqueueRepeat: one initial attempt, one
// BADCOOKIE-driven repeat, and one reliable-transport-downgraded repeat.
const maxCookieAttempts = 3

var (
	// Root hints (simplified - real version would load from file)
	rootServers = []string{
		"198.41.0.4:53",      // a.root-servers.net
		"199.9.14.201:53",    // b.root-servers.net
		"192.33.4.12:53",     // c.root-servers.net
		"199.7.91.13:53",     // d.root-servers.net
		"192.203.230.10:53",  // e.root-servers.net
		"192.5.5.241:53",     // f.root-servers.net
		"192.112.36.4:53",    // g.root-servers.net
		"198.97.190.53:53",   // h.root-servers.net
		"192.36.148.17:53",   // i.root-servers.net
		"192.58.128.30:53",   // j.root-servers.net
		"193.0.14.129:53",    // k.root-servers.net
		"199.7.83.42:53",     // l.root-servers.net
		"202.12.27.33:53",    // m.root-servers.net
	}

	ErrMaxIterations = errors.New("max iterations reached")
	ErrNoNameservers = errors.New("no nameservers available")
	ErrTimeout       = errors.New("query timeout")
)

// Config holds resolver configuration
type Config struct {
	// Cache configuration
	CacheConfig cache.Config

	// Worker pool for concurrent queries
	Workers int

	// Query timeout
	QueryTimeout time.Duration

	// Max iterations for iterative resolution
	MaxIterations int

	// Enable DNS cookies
	EnableCookies bool
	CookieConfig  cookie.Config

	// Enable RRL
	EnableRRL bool
	RRLConfig rrl.Config
}

// Recursive implements a full recursive DNS resolver
type Recursive struct {
	cache      *cache.ShardedCache
	workerPool *worker.Pool
	cookies    *cookie.Engine
	rrl        *rrl.Limiter

	cfg Config

	// UDP client with randomized source port
	client *dns.Client
	// tcpClient is used once a query is downgraded to a reliable transport
	// by the cookie client layer (cookie.FlagUseReliableTransport).
	tcpClient *dns.Client
}

// NewRecursive creates a new recursive resolver
func NewRecursive(cfg Config) (*Recursive, error) {
	if cfg.QueryTimeout == 0 {
		cfg.QueryTimeout = 5 * time.Second
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = 20
	}
	if cfg.Workers == 0 {
		cfg.Workers = 100
	}

	r := &Recursive{
		cache: cache.NewShardedCache(cfg.CacheConfig),
		workerPool: worker.NewPool(worker.Config{
			Workers:   cfg.Workers,
			QueueSize: cfg.Workers * 10,
		}),
		client: &dns.Client{
			Timeout: cfg.QueryTimeout,
			Net:     "udp",
		},
		tcpClient: &dns.Client{
			Timeout: cfg.QueryTimeout,
			Net:     "tcp",
		},
		cfg: cfg,
	}

	// Initialize cookies if enabled
	if cfg.EnableCookies {
		var err error
		r.cookies, err = cookie.NewEngine(cfg.CookieConfig, slog.Default().With("component", "resolver"))
		if err != nil {
			return nil, fmt.Errorf("init cookies: %w", err)
		}
	}

	// Initialize RRL if enabled
	if cfg.EnableRRL {
		r.rrl = rrl.NewLimiter(cfg.RRLConfig)
	}

	return r, nil
}

// Resolve performs recursive resolution for a query
func (r *Recursive) Resolve(ctx context.Context, q *dns.Msg, clientIP net.IP) (*dns.Msg, error) {
	if len(q.Question) == 0 {
		return nil, errors.New("no question in query")
	}

	question := q.Question[0]

	// Check cache first
	cacheKey := packet.HashQuery(question.Name, question.Qtype, question.Qclass)
	if entry, ok := r.cache.Get(cacheKey); ok && !entry.IsExpired() {
		// Cache hit!
		resp := pool.GetMessage()
		defer pool.PutMessage(resp)

		if err := resp.Unpack(entry.Data); err == nil {
			resp.Id = q.Id // Use query's transaction ID
			resp.RecursionAvailable = true
			return resp.Copy(), nil
		}
	}

	// Cache miss - perform iterative resolution
	resp, err := r.resolveIterative(ctx, question.Name, question.Qtype, question.Qclass)
	if err != nil {
		return nil, err
	}

	resp.Id = q.Id
	resp.RecursionAvailable = true

	// Cache the response
	if packed, err := resp.Pack(); err == nil {
		r.cache.Set(cacheKey, &cache.Entry{
			Data:      packed,
			ExpiresAt: time.Now().Add(time.Duration(getTTL(resp)) * time.Second),
			OrigTTL:   getTTL(resp),
			QName:     question.Name,
			QType:     question.Qtype,
			QClass:    question.Qclass,
		})
	}

	return resp, nil
}

// resolveIterative performs iterative resolution starting from root
func (r *Recursive) resolveIterative(ctx context.Context, qname string, qtype, qclass uint16) (*dns.Msg, error) {
	nameservers := rootServers
	iterations := 0

	for iterations < r.cfg.MaxIterations {
		iterations++

		// Query one of the nameservers
		resp, err := r.queryNameserver(ctx, nameservers[0], qname, qtype, qclass)
		if err != nil {
			// Try next nameserver
			if len(nameservers) > 1 {
				nameservers = nameservers[1:]
				continue
			}
			return nil, fmt.Errorf("all nameservers failed: %w", err)
		}

		// Check if we got an answer
		if len(resp.Answer) > 0 {
			return resp, nil
		}

		// Check for NXDOMAIN
		if resp.Rcode == dns.RcodeNameError {
			return resp, nil
		}

		// Follow referral (NS records in Authority section)
		if len(resp.Ns) > 0 {
			var newNameservers []string

			// Extract NS records
			for _, rr := range resp.Ns {
				if ns, ok := rr.(*dns.NS); ok {
					// Need to resolve NS name to IP (glue records in Additional)
					nsIP := r.findGlue(resp, ns.Ns)
					if nsIP != "" {
						newNameservers = append(newNameservers, nsIP+":53")
					}
				}
			}

			if len(newNameservers) == 0 {
				return nil, ErrNoNameservers
			}

			nameservers = newNameservers
			continue
		}

		// No answer, no referral - return what we have
		return resp, nil
	}

	return nil, ErrMaxIterations
}

// nsQueryPlan implements cookie.ResolverPlan for a single queryNameserver
// call. EnqueueRepeat is realized as a local flag observed by the retry loop
// below rather than a push into a global iterator queue, since this resolver
// has no separate plan/rplan module (see SPEC_FULL.md §4.F integration note).
type nsQueryPlan struct {
	cookie.QueryFlags
}

func (p *nsQueryPlan) EnqueueRepeat() error {
	return nil
}

// upstreamAddr splits a "host:port" nameserver address for use with the
// cookie layer, which keys on address bytes rather than strings.
func upstreamAddr(ns string) (net.IP, int) {
	host, portStr, err := net.SplitHostPort(ns)
	if err != nil {
		return nil, 0
	}
	port, _ := strconv.Atoi(portStr)
	return net.ParseIP(host), port
}

// queryNameserver sends a query to a specific nameserver, driving the cookie
// client layer's emit/validate/BADCOOKIE-recovery cycle across a bounded
// local retry loop.
func (r *Recursive) queryNameserver(ctx context.Context, ns string, qname string, qtype, qclass uint16) (*dns.Msg, error) {
	ip, port := upstreamAddr(ns)
	plan := &nsQueryPlan{}
	transport := r.client

	for attempt := 0; attempt < maxCookieAttempts; attempt++ {
		msg := pool.GetMessage()

		msg.Id = random.TransactionID()
		msg.RecursionDesired = false // Iterative queries don't set RD
		msg.Question = []dns.Question{{
			Name:   qname,
			Qtype:  qtype,
			Qclass: qclass,
		}}
		msg.SetEdns0(4096, false)

		if r.cookies != nil && ip != nil {
			r.cookies.Client().OnOutbound(cookie.NewDNSMessage(msg), ip, port, plan)
		}

		queryCtx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
		resp, _, err := transport.ExchangeContext(queryCtx, msg, ns)
		cancel()
		pool.PutMessage(msg)
		if err != nil {
			return nil, err
		}

		if r.cookies == nil || ip == nil {
			return resp, nil
		}

		disposition, cerr := r.cookies.Client().OnInbound(cookie.NewDNSMessage(resp), ip, port, plan)
		if cerr != nil {
			return nil, fmt.Errorf("cookie validation: %w", cerr)
		}
		if disposition != cookie.DispositionConsume {
			return resp, nil
		}

		if plan.HasFlag(cookie.FlagUseReliableTransport) {
			transport = r.tcpClient
		}
		// DispositionConsume means OnInbound already enqueued a repeat;
		// loop around for the next attempt.
	}

	return nil, ErrMaxIterations
}

// findGlue looks for glue records (A/AAAA) in Additional section
func (r *Recursive) findGlue(msg *dns.Msg, nsName string) string {
	for _, rr := range msg.Extra {
		switch record := rr.(type) {
		case *dns.A:
			if record.Hdr.Name == nsName {
				return record.A.String()
			}
		case *dns.AAAA:
			if record.Hdr.Name == nsName {
				return record.AAAA.String()
			}
		}
	}
	return ""
}

// getTTL extracts the minimum TTL from a response
func getTTL(msg *dns.Msg) uint32 {
	minTTL := uint32(3600) // Default 1 hour

	for _, rr := range msg.Answer {
		if rr.Header().Ttl < minTTL {
			minTTL = rr.Header().Ttl
		}
	}

	return minTTL
}

// Close stops the resolver
func (r *Recursive) Close() error {
	r.cache.Close()
	r.workerPool.Close()
	if r.rrl != nil {
		r.rrl.Close()
	}
	return nil
}

// Stats returns resolver statistics
type Stats struct {
	Cache cache.Stats
	Pool  worker.Stats
	RRL   *rrl.Stats
}

// GetStats returns current statistics
func (r *Recursive) GetStats() Stats {
	s := Stats{
		Cache: r.cache.GetStats(),
		Pool:  r.workerPool.GetStats(),
	}

	if r.rrl != nil {
		rrlStats := r.rrl.GetStats()
		s.RRL = &rrlStats
	}

	return s
}
