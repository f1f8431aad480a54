package cookie

import "sync"

// QueryFlag is one of the two resolver-query bits the core reads and writes
// (§3's "Resolver-query flags").
type QueryFlag uint8

const (
	// FlagBadCookieAgain marks that this query has already gone through one
	// BADCOOKIE recovery attempt.
	FlagBadCookieAgain QueryFlag = 1 << iota
	// FlagUseReliableTransport marks that the iterator should switch this
	// query to a reliable transport (TCP).
	FlagUseReliableTransport
)

// ResolverPlan is the collaborator interface the client layer uses to drive
// the BADCOOKIE state machine without owning the resolver's retry loop
// itself (§6's "Resolver plan").
type ResolverPlan interface {
	EnqueueRepeat() error
	SetFlag(QueryFlag)
	ClearFlag(QueryFlag)
	HasFlag(QueryFlag) bool
}

// Disposition is the outcome a layer callback reports back to its caller.
type Disposition int

const (
	// DispositionContinue means normal processing should proceed.
	DispositionContinue Disposition = iota
	// DispositionConsume (client layer) means the current response has been
	// fully handled by the cookie layer and a repeat query is in flight.
	DispositionConsume
	// DispositionDone (server layer) means the response is final and ready
	// to send without further resolution.
	DispositionDone
)

// QueryFlags is a minimal, concurrency-safe holder for the two query bits.
// It implements the flag-related three methods of ResolverPlan; an embedder
// supplies EnqueueRepeat.
type QueryFlags struct {
	mu   sync.Mutex
	bits QueryFlag
}

func (f *QueryFlags) SetFlag(fl QueryFlag) {
	f.mu.Lock()
	f.bits |= fl
	f.mu.Unlock()
}

func (f *QueryFlags) ClearFlag(fl QueryFlag) {
	f.mu.Lock()
	f.bits &^= fl
	f.mu.Unlock()
}

func (f *QueryFlags) HasFlag(fl QueryFlag) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bits&fl != 0
}
