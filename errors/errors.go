package errors

import (
	"errors"
	"fmt"
)

// ErrorClass tells callers how to react to an error
type ErrorClass int

const (
	// ErrorTransient covers conditions that clear on their own, such as
	// cancellation during shutdown
	ErrorTransient ErrorClass = iota
	// ErrorInvalid covers bad input or configuration
	ErrorInvalid
	// ErrorFatal covers broken invariants; the component that observed one stops
	ErrorFatal
)

func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Sentinel errors
var (
	ErrAlreadyStarted = errors.New("component already started")

	ErrInvariantViolation = errors.New("invariant violation")
	ErrOutOfRange         = errors.New("value out of range")

	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")
)

// ClassifiedError attaches a class and its origin to an error
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// Classify returns the class of the outermost ClassifiedError in err's
// chain. Unclassified errors are fatal when they wrap ErrInvariantViolation,
// invalid when they wrap a configuration or range sentinel, and transient
// otherwise.
func Classify(err error) ErrorClass {
	var ce *ClassifiedError
	switch {
	case err == nil:
		return ErrorTransient
	case errors.As(err, &ce):
		return ce.Class
	case errors.Is(err, ErrInvariantViolation):
		return ErrorFatal
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrMissingConfig),
		errors.Is(err, ErrOutOfRange):
		return ErrorInvalid
	default:
		return ErrorTransient
	}
}

// IsTransient reports whether err is non-nil and transient
func IsTransient(err error) bool { return err != nil && Classify(err) == ErrorTransient }

// IsInvalid reports whether err is non-nil and invalid
func IsInvalid(err error) bool { return err != nil && Classify(err) == ErrorInvalid }

// IsFatal reports whether err is non-nil and fatal
func IsFatal(err error) bool { return err != nil && Classify(err) == ErrorFatal }

// Wrap formats err as "component.method: action failed: err"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

func wrapAs(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return &ClassifiedError{
		Class:     class,
		Err:       wrapped,
		Message:   wrapped.Error(),
		Component: component,
		Operation: method,
	}
}

// WrapTransient wraps err as transient
func WrapTransient(err error, component, method, action string) error {
	return wrapAs(ErrorTransient, err, component, method, action)
}

// WrapInvalid wraps err as invalid
func WrapInvalid(err error, component, method, action string) error {
	return wrapAs(ErrorInvalid, err, component, method, action)
}

// WrapFatal wraps err as fatal
func WrapFatal(err error, component, method, action string) error {
	return wrapAs(ErrorFatal, err, component, method, action)
}

// Invariant builds the fatal error for a broken pipeline invariant. It wraps
// ErrInvariantViolation and reads "component.method: invariant violation: detail".
func Invariant(component, method, format string, args ...any) error {
	err := fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
	return &ClassifiedError{
		Class:     ErrorFatal,
		Err:       err,
		Message:   component + "." + method + ": " + err.Error(),
		Component: component,
		Operation: method,
	}
}

// FromPanic turns a recovered value into a fatal error. Fatal errors pass
// through unchanged so an Invariant keeps its message.
func FromPanic(recovered any, component, method string) error {
	switch v := recovered.(type) {
	case nil:
		return nil
	case error:
		if IsFatal(v) {
			return v
		}
		return WrapFatal(v, component, method, "recovered panic")
	default:
		return WrapFatal(fmt.Errorf("panic: %v", v), component, method, "recovered panic")
	}
}
