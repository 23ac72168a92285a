package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mt4110/seg-transcode/internal/keys"
)

var statusCmd = &cobra.Command{
	Use:   "status <video-id | source-key>",
	Short: "動画の処理状況をストレージから確認します",
	Long: `unprocessed/ processed/ final/ の内容とマニフェストを読み、分割・変換・結合がどこまで進んだかを表示します。
ストレージへの書き込みは行いません。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := wire(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		videoID := keys.VideoID(args[0])
		r, err := newPipeline(cfg, d).Status(cmd.Context(), videoID)
		if err != nil {
			return err
		}

		mark := func(ok bool) string {
			if ok {
				return "✅"
			}
			return "⏳"
		}

		fmt.Printf("video_id: %s (bucket=%s)\n", r.VideoID, cfg.OutputBucket)
		fmt.Printf("%s 分割:   マニフェスト %v, セグメント %d\n", mark(r.ManifestPresent), r.ManifestPresent, r.RawSegments)
		fmt.Printf("%s 変換:   %d / %d\n", mark(r.ReadyToMerge()), r.ProcessedSegments, r.ManifestSegments)
		for _, k := range r.Missing {
			fmt.Printf("     未処理: %s\n", k)
		}
		if r.FinalPresent {
			fmt.Printf("%s 結合:   %s (%s)\n", mark(true), keys.Final(r.VideoID), formatBytes(r.FinalSize))
		} else {
			fmt.Printf("%s 結合:   未完了\n", mark(false))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
