package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type ErrorCode uint16

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeServiceNotFound
	ErrCodeCircularDependency
	ErrCodeDuplicateService
	ErrCodeMissingDependency
	ErrCodeServiceNotInitialized
	ErrCodeInitializationFailed
	ErrCodeCleanupFailed
	ErrCodeHealthCheckFailed
	ErrCodeValidationFailed
	ErrCodeTimeout
	ErrCodeCanceled
	ErrCodeRegistryClosed
	ErrCodeConfiguration
	ErrCodeProcess
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:               "UNKNOWN",
	ErrCodeServiceNotFound:       "SERVICE_NOT_FOUND",
	ErrCodeCircularDependency:    "CIRCULAR_DEPENDENCY",
	ErrCodeDuplicateService:      "DUPLICATE_SERVICE",
	ErrCodeMissingDependency:     "MISSING_DEPENDENCY",
	ErrCodeServiceNotInitialized: "SERVICE_NOT_INITIALIZED",
	ErrCodeInitializationFailed:  "SERVICE_INITIALIZATION_FAILED",
	ErrCodeCleanupFailed:         "CLEANUP_FAILED",
	ErrCodeHealthCheckFailed:     "HEALTH_CHECK_FAILED",
	ErrCodeValidationFailed:      "VALIDATION_FAILED",
	ErrCodeTimeout:               "TIMEOUT",
	ErrCodeCanceled:              "CANCELED",
	ErrCodeRegistryClosed:        "REGISTRY_CLOSED",
	ErrCodeConfiguration:         "CONFIGURATION",
	ErrCodeProcess:               "PROCESS",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

// Error is the single error shape produced by the runtime. Callers branch on
// Code through errors.Is or the Is* predicates, never on concrete causes.
type Error struct {
	Code        ErrorCode
	Message     string
	Service     string
	Cause       error
	Chain       []string
	Recoverable bool
	UserMessage string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", e.Code))

	if e.Service != "" {
		b.WriteString(fmt.Sprintf(" service=%q:", e.Service))
	}

	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) WithService(service string) *Error {
	e.Service = service
	return e
}

func (e *Error) WithChain(chain []string) *Error {
	e.Chain = chain
	return e
}

func (e *Error) WithUserMessage(msg string) *Error {
	e.UserMessage = msg
	return e
}

func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Sentinels for errors.Is comparisons by code.
var (
	ErrServiceNotFound       = &Error{Code: ErrCodeServiceNotFound}
	ErrCircularDependency    = &Error{Code: ErrCodeCircularDependency}
	ErrDuplicateService      = &Error{Code: ErrCodeDuplicateService}
	ErrMissingDependency     = &Error{Code: ErrCodeMissingDependency}
	ErrServiceNotInitialized = &Error{Code: ErrCodeServiceNotInitialized}
	ErrInitializationFailed  = &Error{Code: ErrCodeInitializationFailed}
	ErrTimeout               = &Error{Code: ErrCodeTimeout}
	ErrRegistryClosed        = &Error{Code: ErrCodeRegistryClosed}
)

func DuplicateService(name string) *Error {
	return New(
		ErrCodeDuplicateService,
		fmt.Sprintf("service %q is already registered", name),
		nil,
	).WithService(name)
}

func MissingDependency(name, dependency string) *Error {
	return New(
		ErrCodeMissingDependency,
		fmt.Sprintf("dependency %q of %q is not registered", dependency, name),
		nil,
	).WithService(name).WithChain([]string{name, dependency})
}

func CircularDependency(chain []string) *Error {
	e := New(
		ErrCodeCircularDependency,
		fmt.Sprintf("circular dependency detected: %s", strings.Join(chain, " -> ")),
		nil,
	).WithChain(chain)
	if len(chain) > 0 {
		e.Service = chain[0]
	}
	return e
}

func ServiceNotFound(name string) *Error {
	return New(
		ErrCodeServiceNotFound,
		fmt.Sprintf("no service registered under %q", name),
		nil,
	).WithService(name)
}

func ServiceNotInitialized(name string) *Error {
	e := New(
		ErrCodeServiceNotInitialized,
		fmt.Sprintf("service %q has not completed initialization", name),
		nil,
	).WithService(name)
	e.Recoverable = true
	return e
}

func InitializationFailed(name string, cause error) *Error {
	e := New(
		ErrCodeInitializationFailed,
		fmt.Sprintf("failed to initialize %s", name),
		cause,
	).WithService(name)
	e.Recoverable = true
	return e
}

func CleanupFailed(name string, cause error) *Error {
	return New(
		ErrCodeCleanupFailed,
		fmt.Sprintf("failed to clean up %s", name),
		cause,
	).WithService(name)
}

func HealthCheckFailed(name string, cause error) *Error {
	return New(
		ErrCodeHealthCheckFailed,
		fmt.Sprintf("health check failed for %s", name),
		cause,
	).WithService(name)
}

func ValidationFailed(cause error) *Error {
	return New(ErrCodeValidationFailed, "registry validation failed", cause)
}

func Timeout(operation string, cause error) *Error {
	e := New(
		ErrCodeTimeout,
		fmt.Sprintf("%s timed out", operation),
		cause,
	)
	e.Recoverable = true
	return e
}

func RegistryClosed() *Error {
	return New(ErrCodeRegistryClosed, "registry has been cleaned up and cannot accept registrations", nil)
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeServiceNotFound)
}

func IsCircularDependency(err error) bool {
	return hasCode(err, ErrCodeCircularDependency)
}

func IsDuplicateService(err error) bool {
	return hasCode(err, ErrCodeDuplicateService)
}

func IsMissingDependency(err error) bool {
	return hasCode(err, ErrCodeMissingDependency)
}

func IsNotInitialized(err error) bool {
	return hasCode(err, ErrCodeServiceNotInitialized)
}

func IsInitializationFailed(err error) bool {
	return hasCode(err, ErrCodeInitializationFailed)
}

func IsTimeout(err error) bool {
	return hasCode(err, ErrCodeTimeout)
}

func IsRegistryClosed(err error) bool {
	return hasCode(err, ErrCodeRegistryClosed)
}

func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeUnknown
}

// hasCode reports whether any *Error in err's chain carries code.
func hasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &Error{Code: code})
}

// IsTransient reports whether err looks like a temporary condition worth
// retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var e *Error
	if errors.As(err, &e) && e.Code != ErrCodeUnknown {
		return e.Recoverable
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

var transientPatterns = []string{
	"timeout",
	"timed out",
	"connection",
	"temporary",
	"unavailable",
	"busy",
	"try again",
}
