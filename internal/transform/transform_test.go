package transform

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/seantiz/dguard/internal/model"
)

func TestCodecRoundTrip(t *testing.T) {
	c := NewCodec(0)
	ctx := context.Background()

	enc, err := c.Encode(ctx, "hello")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if enc != "aGVsbG8=" {
		t.Errorf("Encode(hello) = %q, want %q", enc, "aGVsbG8=")
	}

	dec, err := c.Decode(ctx, enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec != "hello" {
		t.Errorf("Decode = %q, want %q", dec, "hello")
	}
}

func TestCodecDecodeInvalid(t *testing.T) {
	c := NewCodec(0)
	if _, err := c.Decode(context.Background(), "not base64!"); err == nil {
		t.Error("expected error for malformed input")
	}
}

func TestCodecCustomEncoding(t *testing.T) {
	c := &Codec{Encoding: base64.RawURLEncoding}
	got, err := c.Encode(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got != "aGVsbG8" {
		t.Errorf("Encode = %q, want %q", got, "aGVsbG8")
	}
}

func TestCodecDelay(t *testing.T) {
	c := NewCodec(30 * time.Millisecond)

	start := time.Now()
	if _, err := c.Encode(context.Background(), "x"); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Encode returned after %v, want >= 30ms", elapsed)
	}
}

func TestCodecDelayCancelled(t *testing.T) {
	c := NewCodec(5 * time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Encode(ctx, "x")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestHandlersFor(t *testing.T) {
	h := NewCodec(0).Handlers()

	for _, op := range []model.Operation{model.OpEncode, model.OpDecode} {
		if _, err := h.For(op); err != nil {
			t.Errorf("For(%q): %v", op, err)
		}
	}
	if _, err := h.For("compress"); err == nil {
		t.Error("expected error for unknown operation")
	}
}

func TestHandlersValidate(t *testing.T) {
	if err := NewCodec(0).Handlers().Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	h := Handlers{Encode: Func(func(context.Context, string) (string, error) { return "", nil })}
	if err := h.Validate(); err == nil {
		t.Error("expected error when decode handler is missing")
	}
}
