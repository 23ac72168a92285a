package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"

	"github.com/mt4110/seg-transcode/internal/config"
	"github.com/mt4110/seg-transcode/internal/watcher"
)

var (
	flagKeywords       []string
	flagIgnoreKeywords []string
)

var watchCmd = &cobra.Command{
	Use:   "watch [bucket...]",
	Short: "local ストレージのバケットを監視し、新しい動画を自動で分割します",
	Long: `local ストレージ (--storage local) のバケットディレクトリを監視し、置かれた動画に対して SPLIT を実行します。
セグメントの変換と結合は行いません。開発時に S3 のイベントトリガーの代わりとして使います。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			cfg.WatchBuckets = args
		}
		if cmd.Flags().Changed("keywords") {
			cfg.Keywords = flagKeywords
		}
		if cmd.Flags().Changed("ignore-keywords") {
			cfg.IgnoreKeywords = flagIgnoreKeywords
		}
		if cfg.Storage != config.StorageLocal {
			return errors.New("watch は local ストレージでのみ使用できます (--storage local)")
		}

		d, err := wire(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		w := watcher.New(cfg, newPipeline(cfg, d), d.local)
		log.Println("👀 監視モードを開始しました (Ctrl+C で終了)")
		return w.Run(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().StringSliceVar(&flagKeywords, "keywords", []string{}, "ファイル名に含まれるキーワードでフィルタ")
	watchCmd.Flags().StringSliceVar(&flagIgnoreKeywords, "ignore-keywords", []string{}, "ファイル名に含まれるキーワードを除外")
	rootCmd.AddCommand(watchCmd)
}
