package limits

import "time"

const (
	// CatalogueDealsMax is the maximum number of deals accepted in one catalogue
	CatalogueDealsMax = 10000

	// WatchBufferSize is the number of pending snapshots buffered per watcher
	WatchBufferSize = 32

	// ClientRateRequestsPerSecondMax is the maximum mutations per second per client
	ClientRateRequestsPerSecondMax = 15

	// ClientRateBurstSizeMax is the maximum burst size per client
	ClientRateBurstSizeMax = 60

	// ClientRateGarbageCollectionPeriod is how often to clean up rate limiters
	ClientRateGarbageCollectionPeriod = time.Minute

	// ClientRateIdleMax is how long an unused client limiter is kept
	ClientRateIdleMax = 10 * time.Minute

	// RequestBodyBytesMax caps the size of API request bodies
	RequestBodyBytesMax = 64 << 10
)
