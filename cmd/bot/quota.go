package main

import (
	"fmt"

	"linguo/internal/config"
	"linguo/internal/repository/local"
	"linguo/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newQuotaCmd(a *app) *cobra.Command {
	quota := &cobra.Command{
		Use:   "quota",
		Short: "Inspect or reset device-local usage counters",
	}

	quota.AddCommand(
		&cobra.Command{
			Use:   "show <identity-id>",
			Short: "Print how many free translations an identity has used",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withQuota(func(quotas *service.QuotaService) error {
					count, err := quotas.Load(cmd.Context(), args[0])
					if err != nil {
						return fmt.Errorf("failed to read counter: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d of %d used, %d left\n",
						args[0], count, quotas.Limit(), quotas.Limit()-count)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "reset <identity-id>",
			Short: "Give an identity all of its free translations back",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withQuota(func(quotas *service.QuotaService) error {
					if err := quotas.Reset(cmd.Context(), args[0]); err != nil {
						return fmt.Errorf("failed to reset counter: %w", err)
					}
					a.logger.Info("Quota reset", zap.String("identity_id", args[0]))
					fmt.Fprintf(cmd.OutOrStdout(), "%s: counter reset, %d left\n", args[0], quotas.Limit())
					return nil
				})
			},
		},
	)
	return quota
}

// withQuota opens the local counter store for the duration of fn
func (a *app) withQuota(fn func(*service.QuotaService) error) error {
	cfg, err := config.LoadLocal()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := local.Open(cfg.QuotaDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := local.NewQuotaStore(db)
	if err != nil {
		return err
	}
	return fn(service.NewQuotaService(store, cfg.Session.FreeTranslations))
}
