package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/GPTx-global/drpost/oracle/seda"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], seda.NewClient(), os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
