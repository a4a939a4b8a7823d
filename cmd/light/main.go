package main

import (
	"os"
	"path/filepath"

	"github.com/tendermint/lightclient/cmd/light/commands"
	"github.com/tendermint/lightclient/config"
	"github.com/tendermint/lightclient/libs/cli"
	"github.com/tendermint/lightclient/libs/log"
)

func main() {
	conf := config.DefaultConfig()
	logger := log.MustNewDefaultLogger(log.LogFormatPlain, log.LogLevelInfo)

	rootCmd := commands.RootCommand(conf, logger)
	rootCmd.AddCommand(
		commands.MakeInitCommand(conf),
		commands.MakeVerifyCommand(conf, logger),
		commands.MakeFollowCommand(conf, logger),
		commands.MakeStatusCommand(conf),
	)

	cmd := cli.PrepareBaseCmd(rootCmd, "TM", os.ExpandEnv(filepath.Join("$HOME", config.DefaultLightDir)))
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
