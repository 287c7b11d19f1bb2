package registry

import (
	"github.com/nfrund/opin/internal/avatar"
	"github.com/nfrund/opin/internal/captcha"
)

// Service keys shared between modules. Using constants prevents typos.
const (
	AvatarServiceKey Key[*avatar.Service]  = "account.avatars"
	VerifierKey      Key[captcha.Verifier] = "captcha.verifier"
)
