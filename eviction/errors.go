package eviction

import "errors"

// ErrIterationInProgress is returned by Engine.RunIteration when another
// iteration (periodic or admin-triggered) already holds the iteration
// mutex. The periodic loop should only ever see this due to
// misconfiguration; an HTTP "trigger now" admin handler sees it whenever it
// races the periodic loop.
var ErrIterationInProgress = errors.New("eviction: iteration already executing")

// ErrProbeFailed is wrapped into the error FilesystemProbe.Get returns when
// statvfs itself fails, so callers can errors.Is against it instead of
// matching on the formatted message (spec.md §7's "probe failure": abort the
// current iteration, log an error, keep the loop alive for the next
// period).
var ErrProbeFailed = errors.New("eviction: filesystem probe failed")
