package main

import (
	"fmt"
	"os"

	"github.com/noah-isme/student-records/internal/client/api"
	"github.com/noah-isme/student-records/internal/client/effects"
	"github.com/noah-isme/student-records/internal/client/state"
	"github.com/noah-isme/student-records/pkg/config"
	"github.com/noah-isme/student-records/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logr, err := logger.NewCLI(os.Getenv("STUDENTCTL_LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logr.Sync() //nolint:errcheck

	tokens := state.NewFileTokenStore(cfg.Client.SessionFile)
	store := state.NewStore(tokens, logr)
	client := api.New(cfg.Client.APIBaseURL, cfg.Client.RequestTimeout, store, logr)
	coordinator := effects.New(client, store, logr, effects.Options{Timeout: 2 * cfg.Client.RequestTimeout})

	a := &app{
		store:       store,
		coordinator: coordinator,
		out:         os.Stdout,
		errOut:      os.Stderr,
		passwords:   terminalPasswords(os.Stdin),
		sessionFile: tokens.Path(),
	}
	os.Exit(a.run(os.Args[1:]))
}
