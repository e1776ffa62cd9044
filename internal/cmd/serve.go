package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oceanlens/enginewatch/pkg/common/bootstrap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose recorded runs over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		initLogger()
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return bootstrap.Bootstrap(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
