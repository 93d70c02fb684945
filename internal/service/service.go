// Package service implements the certification operations of the FNE API:
// validate locally, submit, then interpret the answer.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prodestic/fne-sdk-go/internal/model"
	"github.com/prodestic/fne-sdk-go/internal/transport"
	"github.com/prodestic/fne-sdk-go/internal/validator"
)

// Poster sends a JSON body to an endpoint of the API
type Poster interface {
	Post(ctx context.Context, endpoint string, body any) (*transport.Response, error)
}

// Option configures a service
type Option func(*options)

type options struct {
	logger    zerolog.Logger
	validator *validator.InvoiceValidator
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithValidator shares one validator between services
func WithValidator(v *validator.InvoiceValidator) Option {
	return func(o *options) {
		o.validator = v
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.validator == nil {
		o.validator = validator.NewInvoiceValidator()
	}
	return o
}

// submit posts body and turns the answer into a Result
func submit(ctx context.Context, client Poster, endpoint string, body any, fallback string, log zerolog.Logger) (*model.Result, error) {
	resp, err := client.Post(ctx, endpoint, body)
	if err != nil {
		return nil, translate(err, fallback)
	}

	data := resp.JSON()
	if data == nil {
		log.Warn().Int("status", resp.StatusCode).Msg("certification answer is not a JSON object")
	}
	return model.NewResult(data, resp.StatusCode), nil
}

// translate turns a 400 from the service into a validation error carrying
// the server's message and field errors. Other errors are returned as is.
func translate(err error, fallback string) error {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != model.KindBadRequest {
		return err
	}

	message := fallback
	if msg, ok := apiErr.Response["message"].(string); ok && msg != "" {
		message = msg
	}
	ve := model.NewValidationMessage(message, apiErr)
	if fields, ok := apiErr.Response["errors"].(map[string]any); ok {
		for field, v := range fields {
			ve.Errors[field] = fmt.Sprint(v)
		}
	}
	return ve
}
