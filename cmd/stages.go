package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mt4110/seg-transcode/internal/pipeline"
)

// stageCmd runs one stage regardless of MODE. An optional argument replaces --key.
func stageCmd(mode, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := cfg.StageContext()
			sc.Mode = mode
			if len(args) == 1 {
				sc.Key = args[0]
			}
			return runStage(cmd.Context(), sc)
		},
	}
}

func init() {
	rootCmd.AddCommand(
		stageCmd(pipeline.ModeSplit, "split [key]", "入力動画をセグメントに分割し、マニフェストを書き込みます"),
		stageCmd(pipeline.ModeProcess, "process [key]", "unprocessed/ のセグメントを1つ再エンコードします"),
		stageCmd(pipeline.ModeMerge, "merge [key]", "マニフェストに従って processed/ のセグメントを結合します"),
	)
}
