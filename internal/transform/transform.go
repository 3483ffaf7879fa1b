package transform

import (
	"context"
	"errors"
	"fmt"

	"github.com/seantiz/dguard/internal/model"
)

// Transformer performs one transform synchronously. It may block for as long
// as the work takes; ctx is cancelled when the worker pool is torn down.
type Transformer interface {
	Transform(ctx context.Context, input string) (string, error)
}

// Func adapts an ordinary function to a Transformer.
type Func func(ctx context.Context, input string) (string, error)

// Transform calls f.
func (f Func) Transform(ctx context.Context, input string) (string, error) {
	return f(ctx, input)
}

// Handlers pairs a Transformer with each operation.
type Handlers struct {
	Encode Transformer
	Decode Transformer
}

// For returns the handler registered for op.
func (h Handlers) For(op model.Operation) (Transformer, error) {
	var t Transformer
	switch op {
	case model.OpEncode:
		t = h.Encode
	case model.OpDecode:
		t = h.Decode
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
	if t == nil {
		return nil, fmt.Errorf("no handler for operation %q", op)
	}
	return t, nil
}

// Validate reports an error if any operation lacks a handler.
func (h Handlers) Validate() error {
	var errs []error
	for _, op := range []model.Operation{model.OpEncode, model.OpDecode} {
		if _, err := h.For(op); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
