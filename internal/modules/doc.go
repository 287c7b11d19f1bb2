// Package modules contains all self-contained application features.
//
// Each subdirectory is a module that should implement the `module.Module` interface.
// Modules are listed in `internal/app/modules.go` and booted by
// `internal/server/kernel.go` at startup.
package modules
