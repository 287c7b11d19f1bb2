package app

import (
	"github.com/nfrund/opin/internal/module"
	"github.com/nfrund/opin/internal/modules/account"
)

// NewModules creates and returns the list of all active modules for the application.
// This is the single source of truth for which features are enabled.
func NewModules(deps Dependencies) []module.Module {
	return []module.Module{
		account.New(accountDeps(deps)),
	}
}
