package build

import (
	"runtime"

	"github.com/go-logr/logr"
)

var version string

// Version returns the current git SHA of commit the binary was built from
func Version() string {
	return version
}

// PrintComponentInfo logs the version and platform of a starting component.
func PrintComponentInfo(lggr logr.Logger, component string) {
	lggr.Info(
		"component info",
		"component", component,
		"version", Version(),
		"goVersion", runtime.Version(),
		"goOS", runtime.GOOS,
		"goArch", runtime.GOARCH,
	)
}
