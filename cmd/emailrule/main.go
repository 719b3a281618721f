package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/optimode/emailrule"
	"github.com/optimode/emailrule/internal/config"
	"github.com/optimode/emailrule/internal/httpapi"
	"github.com/optimode/emailrule/types"
)

var (
	configPath string
	envPath    string
	rules      string
	serve      bool
	workers    int
	verbose    bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "path to config file (yaml, json or toml)")
	flag.StringVar(&envPath, "env", ".env", "path to .env file, loaded if present")
	flag.StringVar(&rules, "rules", "", "comma separated rule modes: role,disposable,mailbox,strict")
	flag.BoolVar(&serve, "serve", false, "start the HTTP server instead of checking addresses")
	flag.IntVar(&workers, "workers", 5, "concurrent lookups when checking several addresses")
	flag.BoolVar(&verbose, "v", false, "print the rejection reason")
}

func main() {
	flag.Parse()

	if err := config.LoadEnvFile(envPath); err != nil {
		log.Fatal("failed to load env file", "path", envPath, "error", err)
	}

	cfg, err := config.New(configPath)
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}
	log.SetLevel(cfg.LogLevel)

	lookup, err := config.NewLookup(cfg)
	if err != nil {
		log.Fatal("failed to init lookup client", "provider", cfg.Provider, "error", err)
	}
	v := emailrule.New(lookup).WithLogger(log.Default())

	modes := cfg.Rules
	if rules != "" {
		modes = types.ParseModeList(rules)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serve {
		if err := runServer(ctx, v, cfg, modes); err != nil {
			log.Fatal("server stopped", "error", err)
		}
		return
	}

	emails := flag.Args()
	if len(emails) == 0 {
		emails, err = readLines(os.Stdin)
		if err != nil {
			log.Fatal("failed to read addresses", "error", err)
		}
	}

	rejected := 0
	for _, res := range v.ValidateMany(ctx, emails, modes, emailrule.ConcurrencyOptions{Workers: workers}) {
		fmt.Println(formatResult(res, verbose))
		if !res.Valid {
			rejected++
		}
	}
	if rejected > 0 {
		os.Exit(1)
	}
}

func runServer(ctx context.Context, v *emailrule.Validator, cfg *config.Config, modes types.Modes) error {
	srv := httpapi.New(v, httpapi.Options{
		Addr:     cfg.ServerAddr,
		Rules:    modes,
		Username: cfg.ServerUsername,
		Password: cfg.ServerPassword,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.ServerAddr, "provider", cfg.Provider, "rules", modes.String())
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func formatResult(res emailrule.Result, verbose bool) string {
	status := "PASS"
	if !res.Valid {
		status = "FAIL"
	}
	line := status + " " + res.Email
	if !verbose {
		return line
	}
	if res.Reason != "" {
		line += " reason=" + string(res.Reason)
	}
	if res.Degraded {
		line += " degraded=true"
	}
	return line
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}
