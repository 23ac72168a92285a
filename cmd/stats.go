package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// LogEntry is the subset of stage completion events the stats command reads.
type LogEntry struct {
	Msg          string  `json:"msg"`
	VideoID      string  `json:"video_id"`
	Segments     int     `json:"segments"`
	DurationSec  float64 `json:"duration_sec"`
	InputSizeMB  float64 `json:"input_size_mb"`
	SizeMB       float64 `json:"size_mb"`
	OutputSizeMB float64 `json:"output_size_mb"`
	FinalSizeMB  float64 `json:"final_size_mb"`
}

type stageStats struct {
	Count       int
	DurationSec float64
	SizeMB      float64
}

type statsReport struct {
	Split   stageStats
	Process stageStats
	Merge   stageStats
	Failed  int
}

// collectStats scans log lines for JSON events. Lines carry a date/file prefix before the JSON.
func collectStats(r io.Reader) (statsReport, error) {
	var rep statsReport
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, "{")
		if idx == -1 {
			continue
		}

		var entry LogEntry
		if err := json.Unmarshal([]byte(line[idx:]), &entry); err != nil {
			continue
		}

		switch {
		case entry.Msg == "Split complete":
			rep.Split.Count++
			rep.Split.DurationSec += entry.DurationSec
			rep.Split.SizeMB += entry.InputSizeMB
		case entry.Msg == "Segment processed":
			rep.Process.Count++
			rep.Process.DurationSec += entry.DurationSec
			rep.Process.SizeMB += entry.OutputSizeMB
		case entry.Msg == "Merge complete":
			rep.Merge.Count++
			rep.Merge.DurationSec += entry.DurationSec
			rep.Merge.SizeMB += entry.FinalSizeMB
		case strings.HasSuffix(entry.Msg, " error"):
			rep.Failed++
		}
	}
	return rep, scanner.Err()
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "処理統計を表示します",
	Long:  `ログファイルに記録されたステージ完了イベントを集計し、件数・処理時間・サイズを表示します。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.LogFile == "" {
			return errors.New("ログファイルが設定されていません (--log-file または logFile)")
		}

		f, err := os.Open(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("ログファイルを開けませんでした: %w", err)
		}
		defer f.Close()

		rep, err := collectStats(f)
		if err != nil {
			return err
		}

		const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
		fmt.Println(separator)
		fmt.Printf("📊 seg-transcode 統計レポート\n")
		fmt.Println(separator)
		fmt.Printf("分割:   %d 本  入力合計 %s  処理時間 %s\n", rep.Split.Count, formatMB(rep.Split.SizeMB), formatDuration(rep.Split.DurationSec))
		fmt.Printf("変換:   %d セグメント  出力合計 %s  処理時間 %s\n", rep.Process.Count, formatMB(rep.Process.SizeMB), formatDuration(rep.Process.DurationSec))
		fmt.Printf("結合:   %d 本  出力合計 %s  処理時間 %s\n", rep.Merge.Count, formatMB(rep.Merge.SizeMB), formatDuration(rep.Merge.DurationSec))
		if rep.Failed > 0 {
			fmt.Printf("エラー: %d 件\n", rep.Failed)
		}
		fmt.Println(separator)
		return nil
	},
}

func formatMB(mb float64) string {
	return formatBytes(int64(mb * 1024 * 1024))
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func formatDuration(sec float64) string {
	d := time.Duration(sec * float64(time.Second))
	return d.Round(time.Millisecond).String()
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
