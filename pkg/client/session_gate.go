package client

import (
	"context"
)

// SessionGate decides whether a visitor may reach the bookmark view. An
// unresolved identity is a hard stop: the synchronizer must never start
// without one.
type SessionGate struct {
	auth AuthGateway
}

func NewSessionGate(auth AuthGateway) *SessionGate {
	return &SessionGate{auth: auth}
}

// CurrentUser resolves the signed-in identity, or nil when there is none.
// Resolution errors are reported as no session; the caller's recourse is the
// sign-in flow either way.
func (g *SessionGate) CurrentUser(ctx context.Context) (*Identity, error) {
	identity, err := g.auth.CurrentIdentity(ctx)
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// SignInURL builds the OAuth entry URL. Success has no in-process result;
// the redirected page observes it by re-resolving CurrentUser.
func (g *SessionGate) SignInURL(returnURL string) string {
	return g.auth.SignInURL("google", returnURL)
}
