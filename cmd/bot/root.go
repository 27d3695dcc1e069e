package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries state shared by every command
type app struct {
	verbose bool
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "linguo",
		Short: "Translation bot with a free usage quota and live history",
		Long: `linguo runs a Telegram translation bot.

Every chat gets an anonymous identity, a limited number of free
translations and a translation history that stays in sync across chats.

  linguo serve                  # run the bot (default)
  linguo migrate                # apply database migrations
  linguo quota show <identity>  # print the usage counter
  linguo quota reset <identity> # give the free translations back`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newQuotaCmd(a),
	)
	return root
}

func (a *app) initLogger() error {
	var err error
	if a.verbose {
		a.logger, err = zap.NewDevelopment()
	} else {
		a.logger, err = zap.NewProduction()
	}
	return err
}
