package cmd

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/mt4110/seg-transcode/internal/config"
)

var flagForce bool

const configTemplate = `# seg-transcode config
# Environment variables (MODE, S3_BUCKET, S3_KEY, SEGMENT_METADATA_KEY, PROCESSED_BUCKET, ...) override these values.
outputBucket: {{.OutputBucket}}
storage: {{.Storage}}            # s3 | local
localRoot: {{.LocalRoot}}
region: "{{.Region}}"
endpoint: "{{.Endpoint}}"          # MinIO / LocalStack
metrics: {{.Metrics}}         # cloudwatch | log | none
metricsNamespace: {{.MetricsNamespace}}
ffmpegBin: {{.FFmpegBin}}
workDir: {{.WorkDir}}
keepScratch: false
logFile: "{{.LogFile}}"
watchBuckets: []
keywords: []
ignoreKeywords: []
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "設定ファイルの雛形を作成します",
	Long:  `~/.config/seg-transcode/config.yaml (または --config) に、現在の設定値を元にした設定ファイルを書き出します。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		if path == "" {
			return errors.New("ホームディレクトリの取得に失敗しました。--config を指定してください")
		}

		if _, err := os.Stat(path); err == nil && !flagForce {
			return errors.New("設定ファイルは既に存在します (上書きするには --force): " + path)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}

		t := template.Must(template.New("config").Parse(configTemplate))
		if err := t.Execute(f, cfg); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("✅ 設定ファイルを作成: %s", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&flagForce, "force", false, "既存の設定ファイルを上書きする")
	rootCmd.AddCommand(initCmd)
}
