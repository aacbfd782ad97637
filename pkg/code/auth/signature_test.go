package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/presale-server/pkg/code/common"
	code_data "github.com/code-payments/presale-server/pkg/code/data"
	"github.com/code-payments/presale-server/pkg/testutil"
)

type testEnv struct {
	ctx      context.Context
	data     code_data.Provider
	now      time.Time
	verifier *RequestSignatureVerifier
}

func setup(t *testing.T) (env testEnv) {
	env.ctx = context.Background()
	env.data = code_data.NewTestDataProvider()
	env.now = time.Unix(1_700_000_000, 0)
	env.verifier = NewRequestSignatureVerifier(NewEstimatedReplayGuard(env.data), time.Minute)
	env.verifier.now = func() time.Time { return env.now }
	return env
}

func newMessage(timestamp time.Time) *Message {
	return &Message{
		Method:    "post",
		Path:      "/v1/sales/abc/purchase",
		Timestamp: timestamp,
		Body:      []byte(`{"amount":10}`),
	}
}

func TestAuthenticate_HappyPath(t *testing.T) {
	env := setup(t)

	owner := testutil.NewRandomAccount(t)
	message := newMessage(env.now)

	signature, err := Sign(owner, message)
	require.NoError(t, err)

	require.NoError(t, env.verifier.Authenticate(env.ctx, owner, message, signature))

	// Replays are rejected even though the signature remains valid
	assert.Equal(t, ErrReplayedRequest, env.verifier.Authenticate(env.ctx, owner, message, signature))
}

func TestAuthenticate_InvalidSignatures(t *testing.T) {
	env := setup(t)

	owner := testutil.NewRandomAccount(t)
	malicious := testutil.NewRandomAccount(t)
	message := newMessage(env.now)

	assert.Equal(t, ErrInvalidSignature, env.verifier.Authenticate(env.ctx, owner, message, nil))

	signature, err := Sign(malicious, message)
	require.NoError(t, err)
	assert.Equal(t, ErrInvalidSignature, env.verifier.Authenticate(env.ctx, owner, message, signature))

	// Any change to the signed content invalidates the signature
	signature, err = Sign(owner, message)
	require.NoError(t, err)

	for _, tampered := range []*Message{
		{Method: "GET", Path: message.Path, Timestamp: message.Timestamp, Body: message.Body},
		{Method: message.Method, Path: "/v1/sales/abc/claim", Timestamp: message.Timestamp, Body: message.Body},
		{Method: message.Method, Path: message.Path, Timestamp: message.Timestamp.Add(-time.Second), Body: message.Body},
		{Method: message.Method, Path: message.Path, Timestamp: message.Timestamp, Body: []byte(`{"amount":11}`)},
	} {
		assert.Equal(t, ErrInvalidSignature, env.verifier.Authenticate(env.ctx, owner, tampered, signature))
	}

	require.NoError(t, env.verifier.Authenticate(env.ctx, owner, message, signature))
}

func TestAuthenticate_TimestampWindow(t *testing.T) {
	env := setup(t)

	owner := testutil.NewRandomAccount(t)

	for _, tc := range []struct {
		timestamp time.Time
		expected  error
	}{
		{env.now.Add(-time.Minute - time.Second), ErrStaleRequest},
		{env.now.Add(maxClockSkew + time.Second), ErrStaleRequest},
		{env.now.Add(-time.Minute), nil},
		{env.now.Add(maxClockSkew), nil},
	} {
		message := newMessage(tc.timestamp)

		signature, err := Sign(owner, message)
		require.NoError(t, err)

		assert.Equal(t, tc.expected, env.verifier.Authenticate(env.ctx, owner, message, signature))
	}
}

func TestAuthenticate_DerivedAddressCannotSign(t *testing.T) {
	env := setup(t)

	buyer := testutil.NewRandomAccount(t)
	mint := testutil.NewRandomAccount(t)

	accounts, err := common.GetPositionAccounts(buyer, mint)
	require.NoError(t, err)

	message := newMessage(env.now)
	assert.Equal(t, ErrInvalidSigner, env.verifier.Authenticate(env.ctx, accounts.Position, message, make([]byte, 64)))
	assert.Equal(t, ErrInvalidSigner, env.verifier.Authenticate(env.ctx, nil, message, nil))
}

func TestMessage_Bytes(t *testing.T) {
	message := &Message{
		Method:    "post",
		Path:      "/v1/sales",
		Timestamp: time.Unix(1700000000, 0),
		Body:      nil,
	}

	expected := "presale-server:v1\nPOST\n/v1/sales\n1700000000\ne3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	assert.Equal(t, expected, string(message.Bytes()))

	assert.Error(t, (&Message{Path: "/", Timestamp: time.Now()}).Validate())
	assert.Error(t, (&Message{Method: "GET", Path: "relative", Timestamp: time.Now()}).Validate())
	assert.Error(t, (&Message{Method: "GET", Path: "/"}).Validate())
}
