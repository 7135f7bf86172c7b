package logging

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// OperationError records which gateway step failed (vision call, audit write,
// upload read) and for which request id.
type OperationError struct {
	Operation string
	RequestID string
	Err       error
}

func (e *OperationError) Error() string {
	switch {
	case e == nil || e.Err == nil:
		return ""
	case e.RequestID == "":
		return fmt.Sprintf("%s: %v", e.Operation, e.Err)
	default:
		return fmt.Sprintf("%s [%s]: %v", e.Operation, e.RequestID, e.Err)
	}
}

// Unwrap exposes the cause, so gRPC status codes and gorm sentinels stay visible.
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewOperationError wraps err for operation. It returns nil when err is nil,
// so results can be wrapped without a separate check.
func NewOperationError(operation, requestID string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, RequestID: requestID, Err: err}
}

// StatusCode reports the gRPC code carried anywhere in err's chain.
// Errors without a status map to codes.Unknown, nil maps to codes.OK.
func StatusCode(err error) codes.Code {
	return status.Code(err)
}
