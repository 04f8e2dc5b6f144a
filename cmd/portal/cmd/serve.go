package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/knowledge-portal/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the portal API over HTTP",
	Long: "Serve the document tree, golden set and documents as JSON, together with " +
		"/health, /ready and /metrics.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("port", "", "listen port (env PORT, default 8080)")
	viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, rdb, cleanup, err := openPortal(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var opts []server.Option
	if rdb != nil {
		opts = append(opts, server.WithRedis(rdb))
	}
	srv := server.New(p, log.Logger, opts...)

	return srv.ListenAndServe(ctx, ":"+viper.GetString("port"))
}

// commandContext returns the command context, falling back to Background
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
