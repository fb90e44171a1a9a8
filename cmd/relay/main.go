package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"murmur/internal/relay"
)

func main() {
	addr := flag.String("addr", ":7654", "listen address")
	flag.Parse()

	logger := log.New(log.Writer(), "relay: ", log.LstdFlags)
	srv := relay.NewServer(logger)

	bound, err := srv.Listen(*addr)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Printf("listening on %s", bound)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		srv.Close()
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Fatal(err)
	}
	logger.Print("shut down")
}
