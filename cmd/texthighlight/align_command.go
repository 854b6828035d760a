package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newAlignCommand(ctx *commandContext) *cobra.Command {
	var (
		text      string
		textFile  string
		audioPath string
		pretty    bool
	)

	cmd := &cobra.Command{
		Use:   "align",
		Short: "Align a transcript to an audio file and print word timings as JSON",
		Long: `Align runs the forced aligner once and prints a single JSON object:

  {"status": true, "marks": [{"s": 0.12, "e": 0.42, "w": "Hello"}], "time": 3.1}
  {"status": false, "message": "AudioNotFoundError: ...", "time": 0}

The command exits 0 for both outcomes; read status from the JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			transcript, err := readTranscript(cmd, text, textFile)
			if err != nil {
				return err
			}
			if strings.TrimSpace(audioPath) == "" {
				return errors.New("--audiopath is required")
			}

			rt, err := ctx.openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			result := rt.pipeline.Align(cmd.Context(), transcript, audioPath)
			if pretty || shouldColorize(cmd.OutOrStdout()) {
				return writeJSON(cmd, result)
			}
			return writeCompactJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Transcript text")
	cmd.Flags().StringVar(&textFile, "text-file", "", "Read the transcript from a file (- for stdin)")
	cmd.Flags().StringVar(&audioPath, "audiopath", "", "Path to the audio file")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output (default when stdout is a terminal)")
	cmd.MarkFlagsMutuallyExclusive("text", "text-file")
	return cmd
}

func readTranscript(cmd *cobra.Command, text, textFile string) (string, error) {
	textFile = strings.TrimSpace(textFile)
	switch {
	case textFile == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read transcript from stdin: %w", err)
		}
		return string(data), nil
	case textFile != "":
		data, err := os.ReadFile(textFile)
		if err != nil {
			return "", fmt.Errorf("read transcript: %w", err)
		}
		return string(data), nil
	case cmd.Flags().Changed("text"):
		return text, nil
	default:
		return "", errors.New("one of --text or --text-file is required")
	}
}
