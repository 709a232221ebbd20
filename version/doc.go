// Package version reports build information for flowkit binaries.
//
// Values are set at compile time:
//
//	go build -ldflags "-X github.com/kbukum/flowkit/version.Version=1.0.0"
package version
