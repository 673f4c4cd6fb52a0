package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "idcard",
	Short: "ID card vault backend",
	Long:  `Backend for the ID card vault mobile app: accounts, ID card storage, OCR relay and expiry reminders over HTTP.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
