package webdriver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error codes returned by remote ends in the error field of a failed command.
const (
	ErrCodeElementClickIntercepted = "element click intercepted"
	ErrCodeElementNotInteractable  = "element not interactable"
	ErrCodeInsecureCertificate     = "insecure certificate"
	ErrCodeInvalidArgument         = "invalid argument"
	ErrCodeInvalidCookieDomain     = "invalid cookie domain"
	ErrCodeInvalidElementState     = "invalid element state"
	ErrCodeInvalidSelector         = "invalid selector"
	ErrCodeInvalidSessionID        = "invalid session id"
	ErrCodeJavascriptError         = "javascript error"
	ErrCodeMoveTargetOutOfBounds   = "move target out of bounds"
	ErrCodeNoSuchAlert             = "no such alert"
	ErrCodeNoSuchCookie            = "no such cookie"
	ErrCodeNoSuchElement           = "no such element"
	ErrCodeNoSuchFrame             = "no such frame"
	ErrCodeNoSuchShadowRoot        = "no such shadow root"
	ErrCodeNoSuchWindow            = "no such window"
	ErrCodeScriptTimeout           = "script timeout"
	ErrCodeSessionNotCreated       = "session not created"
	ErrCodeStaleElementReference   = "stale element reference"
	ErrCodeDetachedShadowRoot      = "detached shadow root"
	ErrCodeTimeout                 = "timeout"
	ErrCodeUnableToSetCookie       = "unable to set cookie"
	ErrCodeUnableToCaptureScreen   = "unable to capture screen"
	ErrCodeUnexpectedAlertOpen     = "unexpected alert open"
	ErrCodeUnknownCommand          = "unknown command"
	ErrCodeUnknownError            = "unknown error"
	ErrCodeUnknownMethod           = "unknown method"
	ErrCodeUnsupportedOperation    = "unsupported operation"
)

// ProtocolError is an error reported by the remote end in the error envelope of a response.
type ProtocolError struct {
	Code       string
	Message    string
	Stacktrace string
	Data       any
	StatusCode int
}

func (e *ProtocolError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// StatusError is a non-2xx response that does not carry an error envelope.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected HTTP status %s", e.Status)
	}
	return fmt.Sprintf("unexpected HTTP status %s: %s", e.Status, e.Body)
}

// RequestError is returned by Client.Request for every failure, with the request that failed.
type RequestError struct {
	Address string
	Method  string
	Path    string
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s%s: %s", e.Method, e.Address, e.Path, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// CommandError is returned by session and handle methods, naming the command and the resources involved.
type CommandError struct {
	Command      Command
	SessionID    string
	ElementID    string
	WindowHandle string
	ShadowID     string
	Args         map[string]any
	Err          error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Command))

	var ids []string
	if e.SessionID != "" {
		ids = append(ids, "session "+e.SessionID)
	}
	if e.WindowHandle != "" {
		ids = append(ids, "window "+e.WindowHandle)
	}
	if e.ElementID != "" {
		ids = append(ids, "element "+e.ElementID)
	}
	if e.ShadowID != "" {
		ids = append(ids, "shadow root "+e.ShadowID)
	}
	if len(e.Args) > 0 {
		keys := make([]string, 0, len(e.Args))
		for k := range e.Args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ids = append(ids, fmt.Sprintf("%s=%v", k, e.Args[k]))
		}
	}
	if len(ids) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ids, ", "))
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *CommandError) Unwrap() error { return e.Err }

// ErrorCode returns the protocol error code carried by err, or "" if err is not a protocol error.
func ErrorCode(err error) string {
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return protoErr.Code
	}
	return ""
}

// IsCommand reports whether err is the failure of the given command.
func IsCommand(err error, cmd Command) bool {
	var cmdErr *CommandError
	return errors.As(err, &cmdErr) && cmdErr.Command == cmd
}
