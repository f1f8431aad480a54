package cookie

import "errors"

// Error kinds surfaced by the cookie engine. Callers match against these with
// errors.Is rather than inspecting message text.
var (
	ErrMalformed      = errors.New("cookie: malformed option")
	ErrCookieMismatch = errors.New("cookie: client cookie mismatch")
	ErrCookieExpected = errors.New("cookie: peer omitted expected cookie")
	ErrNoSecret       = errors.New("cookie: no secret installed")
	ErrOutOfCapacity  = errors.New("cookie: option exceeds maximum size")

	// errMissingAddress is internal: it only fires when a caller constructs a
	// ClientCookieInput/ServerCookieInput with no address at all, which every
	// call site in this package prevents by construction.
	errMissingAddress = errors.New("cookie: no address supplied to hash")
)
