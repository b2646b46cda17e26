// Command historyql runs the historykv query engine behind an HTTP/3
// front end, wiring config, storage, catalog, and server together the way
// the teacher's cmd/main wires its node process.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"historykv/historykv"
	"historykv/config"
	"historykv/logs"
	"historykv/historykv/schema"
	"historykv/server"
)

func main() {
	storePath := flag.String("store", "", "override the store directory")
	listenAddr := flag.String("listen", "", "override the query server listen address")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	if err := cfg.Validate(); err != nil {
		logs.Error("historykv: invalid configuration: %v", err)
		os.Exit(1)
	}

	store, err := historykv.OpenStore(cfg.Store)
	if err != nil {
		logs.Error("historykv: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	registry := historykv.NewTypeRegistry()
	catalog := historykv.NewCatalog(registry)
	for _, t := range schema.Tables() {
		if err := catalog.AddTable(t); err != nil {
			logs.Error("historykv: register table: %v", err)
			os.Exit(1)
		}
	}
	for _, q := range schema.Queries() {
		if err := catalog.AddQuery(q); err != nil {
			logs.Error("historykv: register query: %v", err)
			os.Exit(1)
		}
	}
	if err := catalog.Prepare(); err != nil {
		logs.Error("historykv: prepare catalog: %v", err)
		os.Exit(1)
	}

	engine, err := historykv.NewQueryEngine(catalog, store)
	if err != nil {
		logs.Error("historykv: %v", err)
		os.Exit(1)
	}

	certFile := filepath.Join(cfg.Store.Path, "server.crt")
	keyFile := filepath.Join(cfg.Store.Path, "server.key")
	srv := server.New(cfg.Server, engine, certFile, keyFile)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logs.Error("historykv: server exited: %v", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		logs.Info("historykv: received signal %v, shutting down", sig)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
