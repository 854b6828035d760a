package main

import (
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"texthighlight/internal/httpapi"
	"texthighlight/internal/logging"
	"texthighlight/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the alignment API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			rt, err := ctx.openRuntime(signalCtx)
			if err != nil {
				return err
			}
			defer rt.Close()

			for _, r := range preflight.RunAll(signalCtx, rt.cfg) {
				if !r.Passed {
					logging.WarnWithContext(rt.logger, "preflight check failed", "preflight_failed",
						logging.String("check", r.Name),
						logging.String("detail", r.Detail),
						logging.String(logging.FieldImpact, "alignment requests may fail"),
						logging.String(logging.FieldErrorHint, "run texthighlight doctor"),
					)
				}
			}

			opts := httpapi.Options{
				Bind:         rt.cfg.API.Bind,
				MaxBodyBytes: rt.cfg.API.MaxBodyBytes,
				Model:        rt.aligner.Model(),
			}
			if b := strings.TrimSpace(bind); b != "" {
				opts.Bind = b
			}
			var hist httpapi.HistoryReader
			if rt.history != nil {
				hist = rt.history
			}
			srv := httpapi.NewServer(opts, rt.pipeline, hist, rt.logger)
			if err := srv.Start(signalCtx); err != nil {
				return err
			}
			<-signalCtx.Done()
			srv.Stop()
			rt.logger.Info("api server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override api.bind")
	return cmd
}
