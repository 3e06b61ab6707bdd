package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"dataspace-connector/internal/config"
	"dataspace-connector/internal/connector"
	"dataspace-connector/internal/instrument"
	"dataspace-connector/internal/store"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "connector",
	Short:         "Dataspace connector control plane",
	Long:          "Serves the management API for assets, policy definitions and contract definitions, and answers catalog requests.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cfg, monitor, err := setup(cmd)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.CombineErrors(err, monitor.Close())
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		conn, err := connector.New(ctx, cfg, monitor)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.CombineErrors(err, conn.Close())
		}()
		return conn.Run(ctx)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Register the sample data and seed file in the configured store, then exit",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cfg, monitor, err := setup(cmd)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.CombineErrors(err, monitor.Close())
		}()

		stores, err := store.Open(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.CombineErrors(err, stores.Close())
		}()

		res, err := connector.Seed(cmd.Context(), stores, cfg.Seed, monitor)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d\n", res.Created, res.Skipped)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "path to a YAML config file")
	flags.IntP("port", "p", 8181, "management API port")
	flags.String("store", store.DriverMemory, "store driver: memory, sqlite or postgres")
	flags.String("seed-file", "", "YAML file with assets, policy definitions and contract definitions to register")
	flags.String("log-level", "info", "debug, info, warn or error")

	rootCmd.AddCommand(seedCmd)
}

func setup(cmd *cobra.Command) (*config.Config, *instrument.ZapMonitor, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	monitor, err := instrument.NewMonitor(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, monitor, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "connector: %+v\n", err)
		os.Exit(1)
	}
}
