package compositor

import "fmt"

// ErrorCode is a protocol error code as defined by wl_display.error
// and the per-interface error enums.
type ErrorCode uint32

const (
	ErrInvalidObject ErrorCode = iota
	ErrInvalidMethod
	ErrNoMemory
	ErrImplementation
)

// Interface-specific codes. The numeric values match the protocol
// enums of the interface that reports them.
const (
	ErrSurfaceInvalidScale     ErrorCode = 0
	ErrSurfaceInvalidTransform ErrorCode = 1
	ErrSubsurfaceBadSurface    ErrorCode = 0
	ErrRole                    ErrorCode = 0
)

// ProtocolError is a client protocol violation. It is fatal to the
// offending client's connection, never to the process: the server
// reports it via wl_display.error and disconnects that client.
type ProtocolError struct {
	Code    ErrorCode
	Message string
}

func (err *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error %v: %v", uint32(err.Code), err.Message)
}

// Errorf creates a ProtocolError with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *ProtocolError {
	return &ProtocolError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
