package animir

import (
	"fmt"
	"os"
)

// Debug gates verbose "[animir] ..." stderr traces emitted by the
// compiler and validators. Off by default.
var Debug bool

// debugTrace prints a one-line diagnostic to stderr when Debug is set.
func debugTrace(format string, args ...any) {
	if !Debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "[animir] "+format+"\n", args...)
}
