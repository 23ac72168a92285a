package main

import "github.com/mt4110/seg-transcode/cmd"

func main() {
	cmd.Execute()
}
