package federatedsvc

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsuniversity/classroom/core/user"
)

type parserFunc func(ctx context.Context, token string) (map[string]any, error)

func (f parserFunc) ParseToken(ctx context.Context, token string) (map[string]any, error) {
	return f(ctx, token)
}

func TestGoogleVerifier_Verify(t *testing.T) {
	v := &googleVerifier{parser: parserFunc(func(_ context.Context, token string) (map[string]any, error) {
		switch token {
		case "good":
			return map[string]any{
				"sub":            "1234",
				"email":          " Ada@Gmail.com ",
				"email_verified": true,
				"name":           "Ada Lovelace",
				"picture":        "https://example.com/ada.png",
			}, nil
		case "unverified":
			return map[string]any{"sub": "5678", "email": "bob@gmail.com", "email_verified": "false"}, nil
		case "no-email":
			return map[string]any{"sub": "9"}, nil
		}
		return nil, errors.New("signature mismatch")
	})}
	ctx := context.Background()

	fi, err := v.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, user.FederatedIdentity{
		Provider:      user.ProviderGoogle,
		Subject:       "1234",
		Email:         "ada@gmail.com",
		EmailVerified: true,
		Name:          "Ada Lovelace",
		Picture:       "https://example.com/ada.png",
	}, fi)

	fi, err = v.Verify(ctx, "unverified")
	require.NoError(t, err)
	assert.False(t, fi.EmailVerified)

	for _, token := range []string{"", "  ", "no-email", "forged"} {
		_, err = v.Verify(ctx, token)
		assert.Equal(t, ErrInvalidToken, errors.Cause(err), token)
	}
}

func TestNewGoogleVerifier_NotConfigured(t *testing.T) {
	v, err := NewGoogleVerifier("")
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), "anything")
	assert.Equal(t, ErrNotConfigured, err)
}
