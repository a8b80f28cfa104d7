// Package envelope defines the uniform success/error JSON envelope shared by
// the CLI commands and the serve-mode HTTP surface, and maps core errors to
// stable machine-readable codes.
package envelope

import (
	"errors"

	"wechat-cli/internal/accesstoken"
	"wechat-cli/internal/credstore"
	"wechat-cli/internal/wechat"
)

// Stable error codes surfaced to callers.
const (
	CodeMissingCredentials = "missing_credentials"
	CodeNotConfigured      = "not_configured"
	CodeStoreInit          = "store_init"
	CodePersist            = "persist"
	CodeNetwork            = "network"
	CodeRemoteAuth         = "remote_auth"
	CodeInvalidArgument    = "invalid_argument"
	CodeInternal           = "internal"
)

// ErrorBody carries the code and message of a failed operation. RemoteCode is
// the platform's numeric errcode, present only for remote_auth failures.
type ErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	RemoteCode int    `json:"remote_code,omitempty"`
}

// Envelope is the uniform response shape: {ok:true,data} or
// {ok:false,error:{code,message}}.
type Envelope struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// Success wraps data in a successful envelope.
func Success(data any) Envelope {
	return Envelope{OK: true, Data: data}
}

// Failure maps err onto the error taxonomy and wraps it in a failed envelope.
// Messages are passed through unchanged; nothing is retried or rewritten here.
func Failure(err error) Envelope {
	body := &ErrorBody{Code: CodeInternal, Message: err.Error()}

	var apiErr *wechat.Error
	switch {
	case errors.As(err, &apiErr):
		body.Code = CodeRemoteAuth
		body.Message = apiErr.Message
		body.RemoteCode = apiErr.Code
	case errors.Is(err, accesstoken.ErrMissingCredentials):
		body.Code = CodeMissingCredentials
	case errors.Is(err, credstore.ErrNotConfigured):
		body.Code = CodeNotConfigured
	case errors.Is(err, credstore.ErrStoreInit):
		body.Code = CodeStoreInit
	case errors.Is(err, credstore.ErrPersist):
		body.Code = CodePersist
	case errors.Is(err, accesstoken.ErrNetwork):
		body.Code = CodeNetwork
	}

	return Envelope{OK: false, Error: body}
}

// Invalid builds a failed envelope for a caller-side argument error.
func Invalid(message string) Envelope {
	return Envelope{OK: false, Error: &ErrorBody{Code: CodeInvalidArgument, Message: message}}
}
