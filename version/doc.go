// Package version reports build information for the reqkit binary.
//
// Version, commit and build time can be injected at compile time:
//
//	go build -ldflags "-X github.com/kbukum/reqkit/version.Version=1.0.0" ./cmd/reqkit
package version
