package presale_server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/presale-server/pkg/code/auth"
	"github.com/code-payments/presale-server/pkg/code/common"
)

const (
	timestampHeaderName = "X-Presale-Timestamp"

	// Comma separated <signer>:<signature> pairs, both base58 encoded
	signatureHeaderName = "X-Presale-Signature"
)

type signedRequest struct {
	message    *auth.Message
	signatures map[string][]byte
}

func parseSignedRequest(r *http.Request, body []byte) (*signedRequest, error) {
	rawTimestamp := strings.TrimSpace(r.Header.Get(timestampHeaderName))
	rawSignatures := r.Header.Values(signatureHeaderName)
	if len(rawTimestamp) == 0 || len(rawSignatures) == 0 {
		return nil, errMissingSignature
	}

	unixSeconds, err := strconv.ParseInt(rawTimestamp, 10, 64)
	if err != nil {
		return nil, newRequestError("invalid %s header", timestampHeaderName)
	}

	signatures := make(map[string][]byte)
	for _, header := range rawSignatures {
		for _, pair := range strings.Split(header, ",") {
			pair = strings.TrimSpace(pair)
			if len(pair) == 0 {
				continue
			}

			signer, encoded, ok := strings.Cut(pair, ":")
			if !ok {
				return nil, newRequestError("invalid %s header", signatureHeaderName)
			}

			signature, err := base58.Decode(encoded)
			if err != nil {
				return nil, newRequestError("invalid %s header", signatureHeaderName)
			}
			signatures[signer] = signature
		}
	}

	return &signedRequest{
		message: &auth.Message{
			Method:    r.Method,
			Path:      r.URL.Path,
			Timestamp: time.Unix(unixSeconds, 0),
			Body:      body,
		},
		signatures: signatures,
	}, nil
}

// authenticate requires a valid signature over the request from every signer
func (s *server) authenticate(ctx context.Context, req *signedRequest, signers ...*common.Account) error {
	for _, signer := range signers {
		signature, ok := req.signatures[signer.PublicKey().ToBase58()]
		if !ok {
			return errors.Wrapf(errMissingSignature, "signature from %s", signer.PublicKey().ToBase58())
		}

		if err := s.auth.Authenticate(ctx, signer, req.message, signature); err != nil {
			return err
		}
	}
	return nil
}

// readSignedBody reads the body, decodes it into dst and returns the parsed
// signatures so the handler can authenticate once it knows the signers
func (s *server) readSignedBody(w http.ResponseWriter, r *http.Request, dst interface{}) (*signedRequest, error) {
	body, err := s.readBody(w, r)
	if err != nil {
		return nil, err
	}

	req, err := parseSignedRequest(r, body)
	if err != nil {
		return nil, err
	}

	if err := decodeBody(body, dst); err != nil {
		return nil, err
	}
	return req, nil
}

// SignRequest sets the signature headers on r for each signer. The body must
// be the exact bytes sent with r.
func SignRequest(r *http.Request, body []byte, timestamp time.Time, signers ...*common.Account) error {
	message := &auth.Message{
		Method:    r.Method,
		Path:      r.URL.Path,
		Timestamp: timestamp,
		Body:      body,
	}

	var pairs []string
	for _, signer := range signers {
		signature, err := auth.Sign(signer, message)
		if err != nil {
			return err
		}
		pairs = append(pairs, signer.PublicKey().ToBase58()+":"+base58.Encode(signature))
	}

	r.Header.Set(timestampHeaderName, strconv.FormatInt(timestamp.Unix(), 10))
	r.Header.Set(signatureHeaderName, strings.Join(pairs, ","))
	return nil
}
