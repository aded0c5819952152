// Package process starts external tools in their own process group so that a
// timeout can take down the tool together with every helper it spawned.
package process

import "errors"

// ErrInvalidPID is returned for pids that would address the caller's own group.
var ErrInvalidPID = errors.New("invalid pid")
