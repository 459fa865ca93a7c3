package client

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	identity *Identity
	err      error
}

func (f *fakeAuth) CurrentIdentity(_ context.Context) (*Identity, error) {
	return f.identity, f.err
}

func (f *fakeAuth) SignInURL(provider, returnURL string) string {
	return "https://auth.test/" + provider + "?return=" + returnURL
}

func TestSessionGateResolvesIdentity(t *testing.T) {
	want := &Identity{ID: uuid.New(), Email: "user@example.com"}
	gate := NewSessionGate(&fakeAuth{identity: want})

	got, err := gate.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSessionGateNoSession(t *testing.T) {
	gate := NewSessionGate(&fakeAuth{})

	got, err := gate.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got, "no identity resolves to nil, not an error")
}

func TestSessionGateResolutionFailure(t *testing.T) {
	gate := NewSessionGate(&fakeAuth{err: errors.New("auth unreachable")})

	got, err := gate.CurrentUser(context.Background())
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestSessionGateSignInURLFixedProvider(t *testing.T) {
	gate := NewSessionGate(&fakeAuth{})
	assert.Equal(t, "https://auth.test/google?return=https://app.test/dashboard",
		gate.SignInURL("https://app.test/dashboard"))
}
