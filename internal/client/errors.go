package client

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/studyflow/internal/errs"
)

// remoteError keeps the server's message while matching the local sentinel.
type remoteError struct {
	kind error
	msg  string
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.kind }

// decode turns a gRPC status into an error that matches errs sentinels.
func decode(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var kind error
	switch st.Code() {
	case codes.InvalidArgument:
		kind = errs.ErrValidation
	case codes.Unauthenticated:
		kind = errs.ErrUnauthorized
	case codes.ResourceExhausted:
		kind = errs.ErrRateLimited
	case codes.AlreadyExists:
		kind = errs.ErrAlreadyExists
	case codes.NotFound:
		kind = errs.ErrNotFound
	case codes.Canceled:
		kind = context.Canceled
	case codes.DeadlineExceeded:
		kind = context.DeadlineExceeded
	}
	return &remoteError{kind: kind, msg: st.Message()}
}
