package presale_server

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/code-payments/presale-server/pkg/code/auth"
	"github.com/code-payments/presale-server/pkg/code/ledger"
	"github.com/code-payments/presale-server/pkg/code/presale"
)

var (
	errRateLimited        = errors.New("rate limited")
	errDevFundingDisabled = errors.New("dev funding is disabled")
	errMissingSignature   = errors.New("missing request signature")
	errRequestTooLarge    = errors.New("request body too large")
)

// requestError is a malformed request that never reached the engine
type requestError struct {
	message string
}

func (e *requestError) Error() string {
	return e.message
}

func newRequestError(format string, args ...any) error {
	return &requestError{message: fmt.Sprintf(format, args...)}
}

type apiError struct {
	status      int
	code        string
	message     string
	programCode *uint32
}

type errorResponse struct {
	Error       string  `json:"error"`
	Code        string  `json:"code"`
	ProgramCode *uint32 `json:"program_code,omitempty"`
}

// toAPIError classifies err into a status code and a stable error code.
// Unclassified errors never leak their message.
func toAPIError(err error) *apiError {
	if engineErr, ok := presale.AsError(err); ok {
		result := &apiError{
			status:  engineStatus(engineErr),
			code:    engineErr.Name(),
			message: err.Error(),
		}
		if programCode, ok := engineErr.ProgramCode(); ok {
			value := uint32(programCode)
			result.programCode = &value
		}
		if engineErr.Kind() == presale.KindAddressDerivationFailure {
			result.message = engineErr.Error()
		}
		return result
	}

	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return &apiError{status: http.StatusBadRequest, code: "InvalidRequest", message: reqErr.message}
	case errors.Is(err, errRequestTooLarge):
		return &apiError{status: http.StatusRequestEntityTooLarge, code: "InvalidRequest", message: err.Error()}
	case errors.Is(err, errRateLimited):
		return &apiError{status: http.StatusTooManyRequests, code: "RateLimited", message: err.Error()}
	case errors.Is(err, errDevFundingDisabled):
		return &apiError{status: http.StatusNotFound, code: "Disabled", message: err.Error()}
	case errors.Is(err, errMissingSignature),
		errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrInvalidSigner),
		errors.Is(err, auth.ErrStaleRequest),
		errors.Is(err, auth.ErrReplayedRequest):
		return &apiError{status: http.StatusForbidden, code: "SignatureError", message: err.Error()}
	case errors.Is(err, ledger.ErrAccountNotFound):
		return &apiError{status: http.StatusNotFound, code: "AccountNotFound", message: err.Error()}
	case errors.Is(err, ledger.ErrBalanceOverflow):
		return &apiError{status: http.StatusBadRequest, code: "CalculationError", message: err.Error()}
	case errors.Is(err, ledger.ErrMintMismatch), errors.Is(err, ledger.ErrOwnerMismatch):
		return &apiError{status: http.StatusConflict, code: "InvalidAccount", message: err.Error()}
	}

	return &apiError{status: http.StatusInternalServerError, code: "Internal", message: "internal error"}
}

func engineStatus(err *presale.Error) int {
	switch err {
	case presale.ErrSaleNotFound, presale.ErrPositionNotFound:
		return http.StatusNotFound
	case presale.ErrUnauthorized:
		return http.StatusForbidden
	case presale.ErrInvalidAmount, presale.ErrCalculationError:
		return http.StatusBadRequest
	}

	switch err.Kind() {
	case presale.KindPreconditionViolation:
		return http.StatusConflict
	case presale.KindArithmeticOverflow:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
