// Package main provides the xlsxflow command: a web UI for spreadsheet
// recipes plus headless apply and inspect commands.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/config"
)

// app holds state shared by the subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     zerolog.Logger
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:          "xlsxflow",
		Short:        "Transform Excel workbooks with recipes",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = cfg.Log.Logger(cmd.ErrOrStderr())
			cmd.SetContext(a.log.WithContext(cmd.Context()))
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "YAML config file")
	if err := config.BindLogFlags(pf, a.v); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(newServeCmd(a), newApplyCmd(a), newInspectCmd(a))
	return rootCmd
}
