package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Reconcile expiry reminders and deliver the ones that are due",
	Long:  `Runs one reminder pass outside the server: every stored ID card is reconciled against its reminder state, then due notifications are pushed.`,
	RunE:  runRemind,
}

func init() {
	rootCmd.AddCommand(remindCmd)
}

func runRemind(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := loadConfig()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	stack, err := newReminderStack(ctx, cfg, db)
	if err != nil {
		return err
	}

	summary, err := stack.reconciler.ReconcileAll(ctx)
	if err != nil {
		return err
	}
	sent, err := stack.dispatcher.DispatchDue(ctx, time.Now())
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"failed":    summary.Failed,
		"sent":      sent,
	}).Info("Reminder pass finished")
	return nil
}
