package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"

	"github.com/rezkam/taskly/internal/infrastructure/http/response"
)

// ValidationConfig holds configuration for the OpenAPI validation middleware.
type ValidationConfig struct {
	// MultiError when true collects all validation errors instead of stopping at first.
	MultiError bool
}

// NewValidator creates OpenAPI request validation middleware that answers
// 400 for requests the document rejects. Security requirements are not
// checked here; the Auth middleware owns authentication.
func NewValidator(spec *openapi3.T, config ValidationConfig) func(http.Handler) http.Handler {
	// Routes are mounted under /api without host validation.
	spec.Servers = openapi3.Servers{
		{URL: "/api"},
	}

	opts := &nethttpmiddleware.Options{
		Options: openapi3filter.Options{
			MultiError: config.MultiError,
			AuthenticationFunc: func(_ context.Context, _ *openapi3filter.AuthenticationInput) error {
				return nil
			},
		},
		ErrorHandlerWithOpts:  validationErrorHandler,
		SilenceServersWarning: true,
	}

	return nethttpmiddleware.OapiRequestValidatorWithOptions(spec, opts)
}

func validationErrorHandler(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, opts nethttpmiddleware.ErrorHandlerOpts) {
	if opts.StatusCode == http.StatusNotFound {
		response.NotFound(w, "route")
		return
	}
	if opts.StatusCode == http.StatusMethodNotAllowed {
		response.Error(w, "METHOD_NOT_ALLOWED", "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	details := fieldErrors(err)

	slog.WarnContext(ctx, "request validation failed",
		"path", r.URL.Path,
		"method", r.Method,
		"invalid_field_count", len(details),
		"error", err.Error())

	response.ValidationErrors(w, details)
}

// fieldErrors walks kin-openapi's typed errors and reports one entry per
// offending parameter or body property.
func fieldErrors(err error) []response.ErrorField {
	if err == nil {
		return []response.ErrorField{}
	}

	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []response.ErrorField
		for _, e := range multi {
			out = append(out, fieldErrors(e)...)
		}
		return out
	}

	var reqErr *openapi3filter.RequestError
	if !errors.As(err, &reqErr) {
		return []response.ErrorField{{Field: "request", Issue: "invalid request"}}
	}

	var schemaErr *openapi3.SchemaError
	hasSchemaErr := errors.As(reqErr.Err, &schemaErr)

	switch {
	case reqErr.Parameter != nil:
		issue := reqErr.Reason
		if hasSchemaErr {
			issue = schemaErr.Reason
		} else if issue == "" && reqErr.Err != nil {
			issue = reqErr.Err.Error()
		}
		return []response.ErrorField{{Field: reqErr.Parameter.Name, Issue: issue}}

	case hasSchemaErr:
		field := strings.Join(schemaErr.JSONPointer(), ".")
		if field == "" {
			field = "body"
		}
		return []response.ErrorField{{Field: field, Issue: schemaErr.Reason}}

	default:
		issue := reqErr.Reason
		if issue == "" {
			issue = "invalid request body"
		}
		return []response.ErrorField{{Field: "body", Issue: issue}}
	}
}
