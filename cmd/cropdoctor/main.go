// cropdoctor serves and runs crop disease diagnoses.
//
// Usage:
//
//	cropdoctor serve    [--listen=<addr>]
//	cropdoctor diagnose --plant-part=<part> [--language=<code>] [--format=json|csv] FILE...
//	cropdoctor seed     FILE
//	cropdoctor diseases [--search=<text>] [--crop=<type>] [--severity=<level>]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
