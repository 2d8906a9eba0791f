// Package main is betledger's maintenance CLI. It runs one-shot jobs against
// the same database and configuration as the API server:
//
//	ledgerctl automation        resolve pending bets once and print the report
//	ledgerctl summary           print the performance summary and per-house breakdown
//	ledgerctl seed              write opening balances from HOUSES_FILE
//	ledgerctl hash-password PW  print a bcrypt hash for AUTH_PASSWORD_HASH
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/betledger/ledger/internal/config"
	"github.com/betledger/ledger/internal/oracle"
	"github.com/betledger/ledger/internal/report"
	"github.com/betledger/ledger/internal/repository"
	"github.com/betledger/ledger/internal/service"
	"github.com/jmoiron/sqlx"
)

const usage = `usage: ledgerctl <command> [args]

commands:
  automation        resolve pending bets once and print the report
  summary           print the performance summary
  seed              write opening balances from HOUSES_FILE
  hash-password PW  print a bcrypt hash for AUTH_PASSWORD_HASH
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "ledgerctl:", err)
		os.Exit(1)
	}
}

func run(cmd string, args []string) error {
	if cmd == "hash-password" {
		if len(args) != 1 {
			return errors.New("hash-password takes exactly one argument")
		}
		hash, err := service.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	}

	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.DB.Driver, cfg.DB.DSN, repository.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}

	switch cmd {
	case "automation":
		return runAutomation(ctx, cfg, db, logger)
	case "summary":
		return printSummary(ctx, db, logger)
	case "seed":
		return seedHouses(ctx, cfg, db, logger)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runAutomation(ctx context.Context, cfg *config.Config, db *sqlx.DB, logger *slog.Logger) error {
	var outcomes service.OutcomeOracle = oracle.NewSimulated()
	if cfg.Oracle.URL != "" {
		outcomes = oracle.NewHTTP(cfg.Oracle.URL, cfg.Oracle.Timeout)
	}

	resolution := service.NewResolutionService(db,
		repository.NewBetRepository(db), repository.NewBalanceRepository(db),
		outcomes, cfg.Oracle.Timeout, nil, logger)

	rep, err := resolution.RunAutomation(ctx)
	if err != nil {
		return err
	}
	return printJSON(rep)
}

func printSummary(ctx context.Context, db *sqlx.DB, logger *slog.Logger) error {
	balanceRepo := repository.NewBalanceRepository(db)
	bets := service.NewBetService(db, repository.NewBetRepository(db), balanceRepo, nil, logger)
	balances := service.NewBalanceService(db, balanceRepo, nil, logger)

	all, err := bets.ListBets(ctx, "")
	if err != nil {
		return err
	}
	total, err := balances.TotalBalance(ctx)
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"summary":       report.Summarize(all),
		"by_house":      report.ByHouse(all),
		"total_balance": total,
	})
}

func seedHouses(ctx context.Context, cfg *config.Config, db *sqlx.DB, logger *slog.Logger) error {
	if cfg.DB.HousesFile == "" {
		return errors.New("HOUSES_FILE is not set")
	}
	seeds, err := config.LoadHouseSeeds(cfg.DB.HousesFile)
	if err != nil {
		return err
	}
	balances := service.NewBalanceService(db, repository.NewBalanceRepository(db), nil, logger)
	n, err := balances.SeedHouses(ctx, seeds)
	if err != nil {
		return err
	}
	logger.Info("seed finished", "written", n, "in_file", len(seeds))
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
