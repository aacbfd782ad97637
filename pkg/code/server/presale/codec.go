package presale_server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/code-payments/presale-server/pkg/code/common"
	grpc_metrics "github.com/code-payments/presale-server/pkg/grpc/metrics"
)

// Amount is a u64 carried as a decimal JSON string, since JSON numbers lose
// precision above 2^53. Bare integers are accepted on input.
type Amount uint64

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(a), 10))
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	value := strings.Trim(string(data), `"`)
	if len(value) == 0 || value == "null" {
		return errors.New("amount is required")
	}

	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return errors.Errorf("invalid amount %q", value)
	}
	*a = Amount(parsed)
	return nil
}

// readBody reads the raw request body, which is also what signatures cover
func (s *server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := s.conf.maxRequestBodySize.Get(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, errRequestTooLarge
		}
		return nil, errors.Wrap(err, "error reading request body")
	}
	return body, nil
}

func decodeBody(body []byte, dst interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return newRequestError("invalid request body: %v", err)
	}
	return nil
}

func parseAccount(name, value string) (*common.Account, error) {
	if len(value) == 0 {
		return nil, newRequestError("%s is required", name)
	}

	account, err := common.NewAccountFromPublicKeyString(value)
	if err != nil {
		return nil, newRequestError("invalid %s", name)
	}
	return account, nil
}

func parseAccountParam(r *http.Request, name string) (*common.Account, error) {
	return parseAccount(name, chi.URLParam(r, name))
}

func (s *server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	grpc_metrics.RecordResultCode(r.Context(), "OK")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Debug("failure writing response")
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)

	grpc_metrics.RecordResultCode(r.Context(), apiErr.code)

	if apiErr.status >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", r.URL.Path).Warn("failure serving request")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.status)
	_ = json.NewEncoder(w).Encode(&errorResponse{
		Error:       apiErr.message,
		Code:        apiErr.code,
		ProgramCode: apiErr.programCode,
	})
}
