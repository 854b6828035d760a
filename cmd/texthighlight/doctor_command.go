package main

import (
	"errors"

	"github.com/spf13/cobra"

	"texthighlight/internal/preflight"
	"texthighlight/internal/publish"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var deep bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that this host can run alignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			if deep {
				results = append(results, preflight.CheckPythonModule(cmd.Context(), cfg.Aligner.PythonBinary, "nemo"))
			}
			if cfg.Publish.S3Enabled {
				pub, err := publish.NewS3Publisher(cmd.Context(), cfg.Publish, logger)
				if err != nil {
					results = append(results, preflight.Result{Name: "S3 bucket", Detail: err.Error()})
				} else {
					results = append(results, preflight.CheckReachable(cmd.Context(), "S3 bucket", pub.Check))
				}
			}

			panel := newStatusPanel(cmd.OutOrStdout(), "Alignment host")
			for _, r := range results {
				panel.check(r.Name, r.Passed, r.Detail)
			}
			panel.info("Model", cfg.Aligner.PretrainedName)
			panel.info("Run history", yesNo(cfg.History.Enabled))
			panel.info("S3 publishing", yesNo(cfg.Publish.S3Enabled))

			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&deep, "deep", false, "Also start Python and import nemo")
	return cmd
}
