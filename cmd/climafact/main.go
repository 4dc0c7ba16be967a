package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "climafact"}

	root.AddCommand(serveCMD(), migrateCMD(), ingestCMD(), checkCMD(), tokenCMD())
	_ = root.Execute()
}
