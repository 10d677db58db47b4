package http

import (
	"context"
	"net/http"
	"strconv"

	commonerrors "github.com/bookshare/server/internal/common/errors"
	"github.com/bookshare/server/internal/common/logger"
	"github.com/bookshare/server/internal/observability/metrics"
)

// HandleError converts any error escaping a handler into a JSON {message}
// body. Domain errors carry their own status; everything else is a 500 with
// the raw error message surfaced, which is acceptable at this service's
// trust level.
func HandleError(w http.ResponseWriter, r *http.Request, err error, log *logger.Logger) {
	if err == nil {
		return
	}

	ctx := r.Context()

	if domainErr, ok := commonerrors.AsDomainError(err); ok {
		status := domainErr.HTTPStatus()

		log.WithFields(ctx, logger.Fields{
			"error_code": domainErr.Code(),
			"category":   string(domainErr.Category()),
			"status":     status,
			"action":     "domain_error",
		}).Debugf("domain error: %s", domainErr.Error())

		metrics.DomainErrorsTotal.WithLabelValues(
			string(domainErr.Category()),
			domainErr.Code(),
			strconv.Itoa(status),
		).Inc()
		metrics.HTTPErrorsTotal.WithLabelValues(
			strconv.Itoa(status), r.URL.Path, r.Method,
		).Inc()

		WriteErrorCode(w, status, domainErr.Code(), domainErr.Message())
		return
	}

	log.WithFields(ctx, logger.Fields{
		"error":  err.Error(),
		"action": "unhandled_error",
	}).Errorf("unhandled error: %v", err)

	metrics.HTTPErrorsTotal.WithLabelValues(
		strconv.Itoa(http.StatusInternalServerError), r.URL.Path, r.Method,
	).Inc()

	WriteError(w, http.StatusInternalServerError, err.Error())
}

func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	traceID, _ := ctx.Value(logger.TraceIDKey).(string)
	return traceID
}
