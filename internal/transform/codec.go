package transform

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
)

// Codec is the default pair of handlers: standard base64 with an optional
// fixed latency applied before every transform.
type Codec struct {
	Delay    time.Duration
	Encoding *base64.Encoding
}

// NewCodec returns a Codec using standard padded base64.
func NewCodec(delay time.Duration) *Codec {
	return &Codec{Delay: delay, Encoding: base64.StdEncoding}
}

// Handlers returns the codec's encode and decode handlers.
func (c *Codec) Handlers() Handlers {
	return Handlers{
		Encode: Func(c.Encode),
		Decode: Func(c.Decode),
	}
}

// Encode returns the base64 form of input.
func (c *Codec) Encode(ctx context.Context, input string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	return c.encoding().EncodeToString([]byte(input)), nil
}

// Decode reverses Encode. Malformed input is an execution error.
func (c *Codec) Decode(ctx context.Context, input string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	out, err := c.encoding().DecodeString(input)
	if err != nil {
		return "", fmt.Errorf("decode input: %w", err)
	}
	return string(out), nil
}

func (c *Codec) encoding() *base64.Encoding {
	if c.Encoding == nil {
		return base64.StdEncoding
	}
	return c.Encoding
}

func (c *Codec) wait(ctx context.Context) error {
	if c.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
