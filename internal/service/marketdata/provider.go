package marketdata

import "errors"

// ErrRateLimited marks a vendor 429. The fallback chain treats it as a
// signal to try the secondary provider rather than retrying the primary.
var ErrRateLimited = errors.New("marketdata: rate limited")
