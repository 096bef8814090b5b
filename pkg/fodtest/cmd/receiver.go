package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fodqa/fod-regression/pkg/webhookrecv"
)

func NewReceiverCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "receiver",
		Short: "Run the webhook receiver until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			cfg := rt.cfg.Receiver
			if listen != "" {
				cfg.ListenAddress = listen
			}
			srv := webhookrecv.New(cfg, rt.Logger())
			if err := srv.Start(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Receiving webhooks on %s (hooks at %s)\n", srv.Addr(), srv.URL("<name>"))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Captured %d deliveries\n", len(srv.Deliveries("")))
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default: receiver.listenAddress)")
	return cmd
}
