package mailscout

import (
	"errors"

	"github.com/bitinho/mailscout/internal/mxcache"
)

var (
	// ErrEmptyDomain is returned by New when no target domain is given.
	ErrEmptyDomain = errors.New("mailscout: domain is required")

	// ErrInvalidDomain is returned by New when the target domain is not
	// a well-formed mail domain.
	ErrInvalidDomain = errors.New("mailscout: invalid domain")

	// ErrNoMXRecords is returned by New when the target domain resolves
	// but has no mail exchangers.
	ErrNoMXRecords = mxcache.ErrNoMX
)
