// strapictl talks to the CMS from a terminal. The session lives in a local
// SQLite file, so a login survives between invocations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/term"

	"github.com/itchan-dev/strapikit/apiclient"
	"github.com/itchan-dev/strapikit/shared/config"
	"github.com/itchan-dev/strapikit/shared/logger"
	"github.com/itchan-dev/strapikit/shared/storage"
	"github.com/itchan-dev/strapikit/shared/tracing"
)

const usage = `usage: strapictl [-config dir] <command> [args]

commands:
  login <identifier>          sign in (password from $STRAPI_PASSWORD or prompt)
  logout                      forget the stored session
  me                          show the signed-in user
  find <type> [filters-json]  list entries, e.g. find articles '{"title":{"$containsi":"go"}}'
  get <type> <id>             show one entry
  upload <file>...            upload files to the media library
`

func main() {
	os.Exit(run())
}

func run() int {
	flags := flag.NewFlagSet("strapictl", flag.ContinueOnError)
	configFolder := flags.String("config", "config", "path to folder with configs")
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := flags.Parse(os.Args[1:]); err != nil {
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}

	cfg, err := config.Load(*configFolder)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger.InitializeWriter(os.Stderr, cfg.Public.Log.Level, cfg.Public.Log.JSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Public.Tracing, "strapictl")
	if err != nil {
		logger.Log.Error("failed to set up tracing", "error", err)
		return 1
	}
	defer shutdownTracing(context.Background())

	store, err := storage.OpenSQLite(cfg.Public.Store.SqlitePath)
	if err != nil {
		logger.Log.Error("failed to open session store", "path", cfg.Public.Store.SqlitePath, "error", err)
		return 1
	}
	defer store.Close()

	a := &app{
		client:       apiclient.New(cfg.Public, store),
		out:          os.Stdout,
		readPassword: promptPassword,
	}
	if err := a.run(ctx, flags.Args()); err != nil {
		if errors.Is(err, errUsage) {
			flags.Usage()
			return 2
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func promptPassword() (string, error) {
	if p := os.Getenv("STRAPI_PASSWORD"); p != "" {
		return p, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal to prompt for a password, set STRAPI_PASSWORD")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
