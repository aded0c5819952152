//go:build windows

package main

import "os"

// shutdownSignals cancel a run. SIGTERM and SIGHUP are not delivered on Windows.
var shutdownSignals = []os.Signal{os.Interrupt}
