package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"service-fulfillment/internal/apperr"
	"service-fulfillment/internal/logx"
)

func reqID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return "-"
}

func writeJSON(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Error("json encode failed",
			logx.String("request_id", reqID(r.Context())),
			logx.Err(err),
		)
	}
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, msg string) {
	fields := []logx.Field{
		logx.String("request_id", reqID(r.Context())),
		logx.Int("status", status),
		logx.String("msg", msg),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("http error", fields...)
	} else {
		logger.Debug("http error", fields...)
	}
	writeJSON(logger, w, r, status, ErrorResponse{Error: msg})
}

// writeServiceError maps a service error onto a status code. notFound is the
// resource-specific 404 message.
func writeServiceError(logger logx.Logger, w http.ResponseWriter, r *http.Request, err error, notFound string) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status, msg = http.StatusNotFound, notFound
	case errors.Is(err, apperr.ErrDuplicateAssignment):
		status, msg = http.StatusConflict, "delivery already assigned for order"
	case errors.Is(err, apperr.ErrAlreadyRefunded):
		status, msg = http.StatusConflict, "payment already refunded"
	case errors.Is(err, apperr.ErrNoPartnerAvailable):
		status, msg = http.StatusConflict, "no available couriers"
	case errors.Is(err, apperr.ErrInvalidTransition):
		status, msg = http.StatusBadRequest, "invalid status transition"
	case errors.Is(err, apperr.ErrInvalidAmount):
		status, msg = http.StatusBadRequest, "amount must be positive"
	case errors.Is(err, apperr.ErrInvalidPaymentMethod):
		status, msg = http.StatusBadRequest, "unsupported payment method"
	case errors.Is(err, apperr.ErrInvalid):
		status, msg = http.StatusBadRequest, "invalid input"
	case errors.Is(err, apperr.ErrGatewayUnavailable):
		status, msg = http.StatusBadGateway, "payment gateway unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusGatewayTimeout, "operation timed out"
	}
	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		logger.Error("service error",
			logx.String("request_id", reqID(r.Context())),
			logx.String("path", r.URL.Path),
			logx.Err(err),
		)
	}
	writeError(logger, w, r, status, msg)
}

const bodyLimit = 1 << 20

func decodeJSON[T any](logger logx.Logger, w http.ResponseWriter, r *http.Request, dst *T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(logger, w, r, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		writeError(logger, w, r, http.StatusBadRequest, "invalid json: trailing data")
		return false
	}
	return true
}

func idFromURL(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
