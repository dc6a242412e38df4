// Command unirec manages the university records store: entity CRUD, the
// numbered queries, data generation, schema migrations and the HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], defaultEnv())
	stop()
	os.Exit(code)
}
