// Package version holds build identification.
package version

// Version is the build version, overridable via -ldflags.
var Version = "dev"
