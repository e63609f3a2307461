package wire

import (
	"errors"

	"github.com/emberhttp/ember/errs"
)

// StatusForError maps a parse/body error to the status code and canned
// body the server writes before abandoning the connection. The body text
// is the specific message the error was created with (see errs.Message)
// rather than a single fixed string per status class, so e.g. an
// absolute-URI rejection and a missing-slash path both surface as 400
// but with distinct wording. Unrecognized errors map to 500.
func StatusForError(err error) (status int, body string) {
	if errors.Is(err, ErrMethodNotAllowed) {
		return 405, MethodNotAllowedBody
	}

	switch {
	case errs.Is(err, errs.MalformedRequestLine),
		errs.Is(err, errs.MalformedHeader),
		errs.Is(err, errs.BadContentLength),
		errs.Is(err, errs.IllegalFragment),
		errs.Is(err, errs.InvalidPath):
		return 400, orDefault(errs.Message(err), BadRequestBody)
	case errs.Is(err, errs.UnsupportedVersion):
		return 505, orDefault(errs.Message(err), VersionNotSupportedBody)
	case errs.Is(err, errs.RequestTimeout):
		return 408, RequestTimeoutBody
	case errs.Is(err, errs.MaxSizeExceeded):
		return 413, orDefault(errs.Message(err), EntityTooLargeBody)
	}
	return 500, InternalErrorBody
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
