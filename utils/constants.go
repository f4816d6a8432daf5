// File: utils/constants.go
package utils

import "time"

// ListingLockPrefix is the prefix used for per-listing reservation lock keys.
const ListingLockPrefix = "lock:listing:"

// ListingLockTTL bounds how long a crashed holder can keep a listing locked.
const ListingLockTTL = 10 * time.Second

// ListingLockWait is how long Acquire polls before giving up.
const ListingLockWait = 3 * time.Second
