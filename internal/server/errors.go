package server

import (
	"errors"

	"connectrpc.com/connect"

	"storyspark/internal/controller"
	"storyspark/internal/history"
	"storyspark/internal/story"
)

// toConnectError maps domain errors onto connect codes.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return err
	}
	switch {
	case errors.Is(err, story.ErrEmptyPrompt), errors.Is(err, story.ErrInvalidField):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, controller.ErrBusy):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, controller.ErrNoConfig):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, controller.ErrDiscarded):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, history.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
