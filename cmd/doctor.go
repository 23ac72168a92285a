package cmd

import (
	"errors"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mt4110/seg-transcode/internal/preflight"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "環境の診断を行います",
	Long:  `ffmpegのインストール状況、作業ディレクトリとログディレクトリの書き込み権限、出力バケットへの接続をチェックします。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Println("🏥 環境診断を開始します...")

		d, err := wire(cmd.Context(), cfg)
		if err != nil {
			log.Printf("❌ ストレージの初期化に失敗しました: %v", err)
		}

		var results []preflight.Result
		if d != nil {
			results = preflight.RunAll(cmd.Context(), cfg, d.store)
		} else {
			results = preflight.RunAll(cmd.Context(), cfg, nil)
		}
		if cfg.LogFile != "" {
			results = append(results, preflight.CheckDirectory("log dir", filepath.Dir(cfg.LogFile)))
		}

		hasError := err != nil
		for _, r := range results {
			if r.Passed {
				log.Printf("✅ %s: %s", r.Name, r.Detail)
			} else {
				log.Printf("❌ %s: %s", r.Name, r.Detail)
				hasError = true
			}
		}

		if hasError {
			return errors.New("いくつかの問題が見つかりました。修正してください。")
		}
		log.Println("✅ 診断完了: 概ね問題なさそうです！")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
