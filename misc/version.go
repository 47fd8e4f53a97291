// Package misc keeps build time information.
package misc

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

// Set by the linker: -X stdpipe/misc.version=... -X stdpipe/misc.gitHash=...
var (
	version = "dev"
	gitHash = ""
)

func GetVersion() string {
	return version
}

// GetGitHash returns linker provided hash or falls back to VCS information
// embedded by the go toolchain.
func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}

// GetAppName returns executable name without extension.
func GetAppName() string {
	name := filepath.Base(os.Args[0])
	return strings.TrimSuffix(name, filepath.Ext(name))
}
