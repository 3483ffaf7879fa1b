// dguard-demo drives an in-process engine the way a host script would: start
// the service, submit an encode and a decode, then stop after a while.
// Usage: go run ./cmd/dguard-demo
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/seantiz/dguard/internal/config"
	"github.com/seantiz/dguard/internal/engine"
	"github.com/seantiz/dguard/internal/service"
	"github.com/seantiz/dguard/internal/transform"
)

const (
	message   = "Hello, world!"
	stopAfter = 6 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := config.NewLogger(os.Stderr, cfg.LogLevel)

	eng, err := engine.New(service.New(), transform.NewCodec(cfg.TransformDelay).Handlers(), nil, logger)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}

	fmt.Println(eng.Start())

	enc, err := eng.Encode(message)
	if err != nil {
		log.Fatalf("encode: %v", err)
	}
	// Not valid base64, so this one is rejected by the decoder.
	dec, err := eng.Decode(message)
	if err != nil {
		log.Fatalf("decode: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopAfter)
	defer cancel()

	for _, h := range []*engine.Handle{enc, dec} {
		go func() {
			out, err := h.Await(ctx)
			if err != nil {
				fmt.Printf("%s %s: %v\n", h.Operation, h.ID, err)
				return
			}
			fmt.Printf("%s %s: %s\n", h.Operation, h.ID, out)
		}()
	}

	<-ctx.Done()
	fmt.Println(eng.Stop())

	if _, err := eng.Encode(message); err != nil {
		fmt.Printf("after stop: %v\n", err)
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer closeCancel()
	if err := eng.Close(closeCtx); err != nil {
		logger.Error("engine shutdown incomplete", "error", err)
	}
}
