package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/ByLCY/txt2pdf/cli"
)

// 版本信息，构建时通过 -ldflags 注入。
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	if err := cli.NewRootCommand(Version, Commit, BuildDate).Execute(); err != nil {
		_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
