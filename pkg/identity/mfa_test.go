package identity

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/sanlucas/hospital/pkg/hospitalapi"
	"github.com/sanlucas/hospital/pkg/kvstore"
	"github.com/sanlucas/hospital/pkg/tokenstore"
)

func TestVerifyEnrollmentCode(t *testing.T) {
	t.Parallel()

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "hospital",
		AccountName: "maria@example.com",
	})
	require.NoError(t, err)

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)

	require.True(t, VerifyEnrollmentCode(key.Secret(), code))
	require.False(t, VerifyEnrollmentCode(key.Secret(), "000000"))
	require.False(t, VerifyEnrollmentCode(key.Secret(), ""))
}

func TestCompleteMFAResubmitsWithCode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	api := &fakeAPI{
		loginFn: func(_ context.Context, req hospitalapi.LoginRequest) (*hospitalapi.LoginData, error) {
			if req.MFACode == "" {
				return &hospitalapi.LoginData{RequiresMFA: true}, nil
			}
			require.Equal(t, "123456", req.MFACode)
			return authenticatedLoginData(), nil
		},
	}
	tokens := tokenstore.New(kvstore.NewMemory())
	svc := New(api, tokens, &fakePerms{}, nil)

	creds := Credentials{Email: "maria@example.com", Password: "pw"}

	first, err := svc.Login(ctx, creds)
	require.NoError(t, err)
	require.Equal(t, StatusMFARequired, first.Status)

	second, err := svc.CompleteMFA(ctx, creds, "123456")
	require.NoError(t, err)
	require.Equal(t, StatusAuthenticated, second.Status)

	token, err := tokens.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-abc", token)
}
