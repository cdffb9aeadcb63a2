package service

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"lazyframe/pkg/engine"
	"lazyframe/pkg/engine/frame"
	"lazyframe/pkg/metadata"
)

type ValidationError struct {
	Problems []ErrWithCtx `json:"problems"`
}

type ErrWithCtx struct {
	Error   string `json:"error"`
	Context string `json:"context,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d problems", len(e.Problems))
}

func (e *ValidationError) Add(err string, context string) {
	e.Problems = append(e.Problems, ErrWithCtx{
		Error:   err,
		Context: context,
	})
}

func (e *ValidationError) HasProblems() bool {
	return len(e.Problems) > 0
}

func NewVErr(err string, context string) error {
	return &ValidationError{
		Problems: []ErrWithCtx{{Error: err, Context: context}},
	}
}

// errorResponse picks the status for err and wraps it in a problems body.
func errorResponse(err error) ImplResponse {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return Response(http.StatusBadRequest, vErr)
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, frame.ErrIndexOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, frame.ErrInvalidUnwrap), errors.Is(err, metadata.ErrTableExists):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrFrameNotFound), errors.Is(err, metadata.ErrTableNotFound):
		status = http.StatusNotFound
	}
	return Response(status, &ValidationError{Problems: []ErrWithCtx{{Error: err.Error()}}})
}
