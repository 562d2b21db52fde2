package main

import (
	"os"

	"github.com/iliyamo/stickerverse/cmd/stickerctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
