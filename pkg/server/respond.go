package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	fcerrors "github.com/matzehuels/fluidcad/pkg/errors"
	"github.com/matzehuels/fluidcad/pkg/observability"
	"github.com/matzehuels/fluidcad/pkg/store"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error APIError `json:"error"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps an error to an HTTP status and an error code.
func statusFor(err error) (int, fcerrors.Code) {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, fcerrors.ErrCodeNotFound
	}
	code := fcerrors.GetCode(err)
	switch code {
	case fcerrors.ErrCodeInvalidInput, fcerrors.ErrCodeInvalidFormat:
		return http.StatusBadRequest, code
	case fcerrors.ErrCodeTypeMismatch,
		fcerrors.ErrCodeUnknownParameter,
		fcerrors.ErrCodeInvalidReference,
		fcerrors.ErrCodeUnresolvedFeature,
		fcerrors.ErrCodeMalformedGeometry:
		return http.StatusUnprocessableEntity, code
	case fcerrors.ErrCodeNotFound:
		return http.StatusNotFound, code
	case fcerrors.ErrCodeDuplicate:
		return http.StatusConflict, code
	case fcerrors.ErrCodeUnsupported:
		return http.StatusNotImplemented, code
	}
	return http.StatusInternalServerError, fcerrors.ErrCodeInternal
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "err", err)
		msg = "internal error"
	}
	s.writeJSON(w, status, ErrorBody{Error: APIError{Code: string(code), Message: msg}})
}

// decodeJSON reads a JSON body into v. Malformed bodies are INVALID_FORMAT
// unless the decoder already returned a coded error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if fcerrors.GetCode(err) != "" {
			return err
		}
		return fcerrors.Wrap(fcerrors.ErrCodeInvalidFormat, err, "request body")
	}
	return nil
}

// observe reports every request to the HTTP hooks under its route pattern
// and logs it at debug level.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, route)
		hooks.OnResponse(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status, "duration", elapsed)
	})
}
