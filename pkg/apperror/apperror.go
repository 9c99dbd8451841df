package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an error for callers and for the HTTP layer.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// Machine codes for sub-cases clients need to tell apart.
const (
	CodePendingChangeExists = "pending_change_exists"
	CodeAlreadyRegistered   = "already_registered"
	CodeAlreadyCheckedIn    = "already_checked_in"
	CodeCheckInNotOpen      = "checkin_not_open"
	CodeCheckInExpired      = "checkin_window_expired"
	CodeTicketEventMismatch = "ticket_event_mismatch"
	CodeFileLimitExceeded   = "file_limit_exceeded"
	CodeEventInPast         = "event_in_past"
	CodeDeleteWindowClosed  = "delete_window_closed"
	CodeAlreadyProcessed    = "already_processed"
	CodeSelfRegistration    = "self_registration"
	CodeAffiliationMismatch = "affiliation_mismatch"
	CodeEventNotApproved    = "event_not_approved"
	CodeEventStarted        = "event_started"
	CodeEventFull           = "event_full"
	CodeDuplicate           = "duplicate"
	CodeInvalidInput        = "invalid_input"
	CodeNotFound            = "not_found"
	CodeForbidden           = "forbidden"
	CodeInternal            = "internal_error"
)

// Error is the typed error returned by every service in this module.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind (and code, when the target sets one).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// WithCode returns a copy of e carrying code.
func (e *Error) WithCode(code string) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: msg}
}

func Conflict(code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

func Forbidden(code, msg string) *Error {
	if code == "" {
		code = CodeForbidden
	}
	return &Error{Kind: KindForbidden, Code: code, Message: msg}
}

func Validation(code, msg string) *Error {
	if code == "" {
		code = CodeInvalidInput
	}
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

// Internal wraps a storage or transport failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "internal error", Err: err}
}

// Sentinels usable with errors.Is.
var (
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrForbidden  = &Error{Kind: KindForbidden}
	ErrValidation = &Error{Kind: KindValidation}
)

// KindOf reports the kind of err; foreign errors are Internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// CodeOf reports the machine code of err, or "" for foreign errors.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// HTTPStatus maps a kind to its response status.
func HTTPStatus(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as {"error", "code"}. Internal errors never expose their cause.
func Respond(c *gin.Context, err error) {
	var ae *Error
	if !errors.As(err, &ae) {
		ae = Internal(err)
	}
	msg := ae.Message
	if ae.Kind == KindInternal {
		msg = "internal server error"
		_ = c.Error(err)
	}
	c.JSON(HTTPStatus(ae.Kind), gin.H{"error": msg, "code": ae.Code})
}
