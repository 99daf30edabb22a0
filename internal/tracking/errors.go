package tracking

import "errors"

// Sentinel errors returned by the engine. Handlers map these onto HTTP
// status codes; everything else is treated as a persistence failure.
var (
	// ErrSessionConflict rejects a manual clock-in while the site already
	// has an open session.
	ErrSessionConflict = errors.New("an open session already exists for this site")

	// ErrNoActiveSession rejects a manual clock-out when the site has no
	// open session.
	ErrNoActiveSession = errors.New("no open session for this site")

	// ErrSiteNotFound is returned for operations naming an unknown site.
	ErrSiteNotFound = errors.New("site not found")

	// ErrSiteInactive is returned for transitions against a site whose
	// monitoring has been switched off.
	ErrSiteInactive = errors.New("site is not monitored")
)
