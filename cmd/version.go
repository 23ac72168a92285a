package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/mt4110/seg-transcode/internal/convert"
)

var (
	// ldflags will set these
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "バージョン情報を表示します",
	// Skip config loading and logger setup.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("seg-transcode %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Date:   %s\n", date)

		if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Printf("Go:     %s\n", info.GoVersion)
		}
		p := convert.TargetProfile
		fmt.Printf("Profile: %s preset=%s crf=%d / %s %s\n", p.VideoCodec, p.Preset, p.CRF, p.AudioCodec, p.AudioBitrate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
