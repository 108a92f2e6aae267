package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coopernurse/barrister/idl/checksum"
	"github.com/coopernurse/barrister/idl/lexer"
	"github.com/coopernurse/barrister/idl/parser"
	"github.com/coopernurse/barrister/idl/semantic"
	"github.com/coopernurse/barrister/internal/config"
	"github.com/coopernurse/barrister/internal/demo/conform"
	"github.com/coopernurse/barrister/internal/demo/userstore"
	"github.com/coopernurse/barrister/internal/model"
	"github.com/coopernurse/barrister/internal/rpc/server"
	"github.com/coopernurse/barrister/internal/rpc/transport"
	webserver "github.com/coopernurse/barrister/internal/web/server"
)

var (
	serveIDLFile           string
	servePort              int
	serveUserStoreDSN      string
	serveUserStorePostgres bool
)

func init() {
	serveCmd.Flags().StringVar(&serveIDLFile, "idl", "", "IDL file to serve; if omitted, the bundled demo contract is served")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override the configured listen port")
	serveCmd.Flags().StringVar(&serveUserStoreDSN, "userstore-dsn", "file::memory:?cache=shared",
		"SQLite DSN for the UserService demo handler; pass a postgres:// DSN to back it with --userstore-postgres instead")
	serveCmd.Flags().BoolVar(&serveUserStorePostgres, "userstore-postgres", false,
		"treat --userstore-dsn as a Postgres DSN instead of a SQLite one")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a contract over JSON-RPC 2.0 HTTP",
	Long: `serve loads an IDL file (or the bundled demo contract when --idl is
omitted), builds its Contract Model, registers the matching demo handlers,
and serves JSON-RPC requests over HTTP at POST /.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		m, err := loadModel(serveIDLFile)
		if err != nil {
			return err
		}

		s := server.New(m,
			server.WithRequestValidation(cfg.Validate.Request),
			server.WithResponseValidation(cfg.Validate.Response),
		)
		s.Register("MyService", conform.MyServiceHandlers())
		s.Register("Echo", conform.EchoHandlers())

		store, err := openUserStore()
		if err != nil {
			return fmt.Errorf("open user store: %w", err)
		}
		if err := store.Migrate(context.Background()); err != nil {
			return fmt.Errorf("migrate user store: %w", err)
		}
		s.Register("UserService", store.Handlers())

		handler := transport.Mount(s)
		srv, err := webserver.New(&webserver.Config{
			Address:           cfg.Server.Address(),
			Handler:           handler,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			IdleTimeout:       cfg.Server.IdleTimeout,
			ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		})
		if err != nil {
			return fmt.Errorf("build server: %w", err)
		}

		errCh := make(chan error, 1)
		go func() {
			fmt.Printf("barrister serving on %s\n", cfg.Server.Address())
			if err := srv.Start(); err != nil {
				errCh <- err
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return fmt.Errorf("server stopped: %w", err)
		case <-sigCh:
			fmt.Println("\nshutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

// openUserStore opens the UserService demo handler's backing store per the
// --userstore-dsn/--userstore-postgres flags, defaulting to an in-memory
// SQLite database so `serve` works with no external dependency out of the box.
func openUserStore() (*userstore.Store, error) {
	if serveUserStorePostgres {
		return userstore.OpenPostgres(serveUserStoreDSN)
	}
	return userstore.OpenSQLite(serveUserStoreDSN)
}

// loadModel builds a Contract Model from an IDL file, or the bundled demo
// contract when path is empty.
func loadModel(path string) (*model.Model, error) {
	if path == "" {
		return model.New(checksum.Stamp(conform.Contract(), 0)), nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	lx := lexer.New(string(source), path)
	tokens, lexErrs := lx.ScanTokens()
	if len(lexErrs) > 0 {
		return nil, fmt.Errorf("%d lex error(s) in %s", len(lexErrs), path)
	}

	contract, parseErrs := parser.New(tokens).Parse()
	if len(parseErrs) > 0 {
		return nil, fmt.Errorf("%d parse error(s) in %s", len(parseErrs), path)
	}

	if semErrs := semantic.Validate(contract); len(semErrs) > 0 {
		return nil, fmt.Errorf("%d validation error(s) in %s", len(semErrs), path)
	}

	return model.New(checksum.Stamp(contract, 0)), nil
}
