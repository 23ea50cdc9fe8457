package authenticode

import (
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

var authenticodeDebug *bool

// DebugPrint writes to stdout only when AUTHENTICODE_DEBUG is set in the
// environment, following the teacher's PE_DEBUG/DebugPrint convention.
func DebugPrint(fmt_str string, v ...interface{}) {
	if authenticodeDebug == nil {
		// os.Environ() is expensive enough to cache the lookup.
		for _, x := range os.Environ() {
			if strings.HasPrefix(x, "AUTHENTICODE_DEBUG=") {
				value := true
				authenticodeDebug = &value
				break
			}
		}
	}

	if authenticodeDebug == nil {
		value := false
		authenticodeDebug = &value
	}

	if *authenticodeDebug {
		fmt.Printf(fmt_str, v...)
	}
}

// Debug dumps arg via go-spew, for ad-hoc inspection of parsed ASN.1
// structures under AUTHENTICODE_DEBUG. Construction sites that record a
// MALFORMED_* warning call this with the raw bytes they failed to parse.
func Debug(arg interface{}) {
	if _, ok := os.LookupEnv("AUTHENTICODE_DEBUG"); ok {
		spew.Dump(arg)
	}
}
