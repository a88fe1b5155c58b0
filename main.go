package main

import (
	"log/slog"

	"github.com/anoixa/folio/cmd"
	"github.com/anoixa/folio/config"
)

func main() {
	info := config.Build()
	slog.Info("folio", slog.String("version", info.Version), slog.String("commit", info.Commit), slog.String("go", info.GoVersion))
	cmd.Execute()
}
