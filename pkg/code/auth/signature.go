package auth

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/presale-server/pkg/code/common"
	"github.com/code-payments/presale-server/pkg/metrics"
)

const (
	metricsStructName = "auth.request_signature_verifier"

	// Tolerated clock drift for timestamps from the future
	maxClockSkew = 30 * time.Second
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidSigner    = errors.New("signer must be a wallet key")
	ErrStaleRequest     = errors.New("request timestamp outside of accepted window")
	ErrReplayedRequest  = errors.New("request signature was already used")
)

// RequestSignatureVerifier verifies that requests were signed by the accounts
// they act on behalf of
type RequestSignatureVerifier struct {
	log    *logrus.Entry
	replay ReplayGuard
	maxAge time.Duration
	now    func() time.Time
}

func NewRequestSignatureVerifier(replay ReplayGuard, maxAge time.Duration) *RequestSignatureVerifier {
	return &RequestSignatureVerifier{
		log:    logrus.StandardLogger().WithField("type", "auth/request_signature_verifier"),
		replay: replay,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Authenticate checks that signature is signer's signature over message, that
// the message is recent, and that the signature hasn't been used before.
// Signers must hold a private key, so derived addresses can never pass.
func (v *RequestSignatureVerifier) Authenticate(ctx context.Context, signer *common.Account, message *Message, signature []byte) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Authenticate")
	defer tracer.End()

	log := v.log.WithField("method", "Authenticate")

	if signer == nil {
		return ErrInvalidSigner
	}
	log = log.WithField("signer", signer.PublicKey().ToBase58())

	if err := message.Validate(); err != nil {
		return errors.Wrap(ErrInvalidSignature, err.Error())
	}

	if !signer.IsOnCurve() {
		return ErrInvalidSigner
	}

	if len(signature) != ed25519.SignatureSize || !signer.Verify(message.Bytes(), signature) {
		log.WithField("signature", base58.Encode(signature)).Debug("request is not signature verified")
		return ErrInvalidSignature
	}

	now := v.now()
	if message.Timestamp.Before(now.Add(-v.maxAge)) || message.Timestamp.After(now.Add(maxClockSkew)) {
		return ErrStaleRequest
	}

	seen, err := v.replay.MarkSeen(ctx, signature)
	if err != nil {
		log.WithError(err).Warn("failure checking signature for replay")
		tracer.OnError(err)
		return errors.Wrap(err, "error checking signature for replay")
	}
	if seen {
		return ErrReplayedRequest
	}

	return nil
}

// Sign produces signer's signature over message
func Sign(signer *common.Account, message *Message) ([]byte, error) {
	if err := message.Validate(); err != nil {
		return nil, err
	}
	return signer.Sign(message.Bytes())
}
