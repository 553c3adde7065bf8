// Package common holds service metadata and logging setup shared by all
// registry binaries.
package common

// PackageName tags metrics and logs emitted by this service.
const PackageName = "fidesinnova-registry"

// Version is set at build time via -ldflags.
var Version = "dev"
