// Package resource bounds the work a reconciliation pass may do at once.
//
//   - Workers: a weighted semaphore caps how many columns are rebuilt in
//     parallel.
//   - IO: a token bucket throttles artifact bytes written, so reconciling a
//     large segment does not starve query traffic on the same disk.
//   - Memory: fail-fast accounting for staged artifact bytes (packed V3
//     containers buffer artifacts until flush).
//
//	rc := resource.NewController(resource.Config{
//	    MaxWorkers:         4,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//	w := resource.NewRateLimitedWriter(ctx, blob, rc)
//
// All methods are nil-safe: a nil *Controller imposes no limits.
package resource
