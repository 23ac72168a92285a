package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mt4110/seg-transcode/internal/config"
	"github.com/mt4110/seg-transcode/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "seg-transcode",
	Short: "動画を分割・並列変換・結合するパイプラインの1ステージを実行します。",
	Long: `大きな動画ファイルをセグメントに分割し (SPLIT)、セグメントごとに再エンコードし (PROCESS)、
最後に結合します (MERGE)。どのステージを実行するかは MODE 環境変数または --mode で指定します。
ステージ間の受け渡しはストレージ上のキー (unprocessed/, processed/, final/) とマニフェストのみで行います。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loadedCfg

		// Flags override the config file and the environment, but only when given explicitly.
		updateConfigFromFlags(cmd, cfg)

		logger.Setup(cfg.LogFile)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd.Context(), cfg.StageContext())
	},
}

// Temporary variables for flags
var (
	flagMode             string
	flagBucket           string
	flagKey              string
	flagManifestKey      string
	flagOutputBucket     string
	flagStorage          string
	flagLocalRoot        string
	flagRegion           string
	flagEndpoint         string
	flagMetrics          string
	flagMetricsNamespace string
	flagFFmpegBin        string
	flagWorkDir          string
	flagLogFile          string
	flagKeepScratch      bool
)

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "設定ファイルのパス (default ~/.config/seg-transcode/config.yaml)")
	pf.StringVar(&flagBucket, "bucket", "", "入力バケット (S3_BUCKET)")
	pf.StringVar(&flagKey, "key", "", "入力キー (S3_KEY)")
	pf.StringVar(&flagManifestKey, "manifest-key", "", "結合に使うマニフェストのキー (SEGMENT_METADATA_KEY)")
	pf.StringVar(&flagOutputBucket, "output-bucket", "", "unprocessed/ processed/ final/ を置くバケット (PROCESSED_BUCKET)")
	pf.StringVar(&flagStorage, "storage", "", "ストレージの種類: s3 | local")
	pf.StringVar(&flagLocalRoot, "local-root", "", "local ストレージのルートディレクトリ")
	pf.StringVar(&flagRegion, "region", "", "AWS リージョン")
	pf.StringVar(&flagEndpoint, "endpoint", "", "S3 互換エンドポイント (MinIO など)")
	pf.StringVar(&flagMetrics, "metrics", "", "メトリクスの送信先: cloudwatch | log | none")
	pf.StringVar(&flagMetricsNamespace, "metrics-namespace", "", "CloudWatch の名前空間 (METRICS_NAMESPACE)")
	pf.StringVar(&flagFFmpegBin, "ffmpeg-bin", "", "ffmpegのバイナリパスを明示的に指定する")
	pf.StringVar(&flagWorkDir, "work-dir", "", "作業ディレクトリ (呼び出しごとにサブディレクトリを作成)")
	pf.StringVar(&flagLogFile, "log-file", "", "ログファイル (ローテーションあり)")
	pf.BoolVar(&flagKeepScratch, "keep-scratch", false, "作業ディレクトリを削除しない (デバッグ用)")

	rootCmd.Flags().StringVar(&flagMode, "mode", "", "実行するステージ: SPLIT | PROCESS | MERGE (MODE)")
}

func updateConfigFromFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("mode") {
		c.Mode = flagMode
	}
	if flags.Changed("bucket") {
		c.SourceBucket = flagBucket
	}
	if flags.Changed("key") {
		c.SourceKey = flagKey
	}
	if flags.Changed("manifest-key") {
		c.ManifestKey = flagManifestKey
	}
	if flags.Changed("output-bucket") {
		c.OutputBucket = flagOutputBucket
	}
	if flags.Changed("storage") {
		c.Storage = flagStorage
	}
	if flags.Changed("local-root") {
		c.LocalRoot = flagLocalRoot
	}
	if flags.Changed("region") {
		c.Region = flagRegion
	}
	if flags.Changed("endpoint") {
		c.Endpoint = flagEndpoint
	}
	if flags.Changed("metrics") {
		c.Metrics = flagMetrics
	}
	if flags.Changed("metrics-namespace") {
		c.MetricsNamespace = flagMetricsNamespace
	}
	if flags.Changed("ffmpeg-bin") {
		c.FFmpegBin = flagFFmpegBin
	}
	if flags.Changed("work-dir") {
		c.WorkDir = flagWorkDir
	}
	if flags.Changed("log-file") {
		c.LogFile = flagLogFile
	}
	if flags.Changed("keep-scratch") {
		c.KeepScratch = flagKeepScratch
	}
}
