/*
Copyright © 2024 Kaleido, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ecryptotoken/deployctl/internal/config"
	"github.com/ecryptotoken/deployctl/internal/constants"
	"github.com/ecryptotoken/deployctl/internal/log"
	"github.com/mattn/go-isatty"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	extraCfgFile  string
	envFile       string
	ansi          string
	networkName   string
	logLevel      string
	verbose       bool
	fancyFeatures bool

	// workingDir is the project root. Empty means the current directory.
	workingDir string
)

var logger log.Logger = &log.StdoutLogger{LogLevel: log.Debug}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   constants.ExecutableName,
	Short: "deployctl compiles, deploys and verifies Solidity contracts on EVM networks",
	Long: `deployctl compiles, deploys and verifies Solidity contracts on EVM networks

Networks and credentials are read from the environment (and a .env file in the
project directory), optionally extended by a deployctl.yaml config file. By
default the eCryptoToken contract is deployed to bscTestnet, using
BSC_TESTNET_RPC as the node URL and PRIVATE_KEY as the deployer account.

To get started run: deployctl compile && deployctl deploy
	`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %s\n", err)
		return 1
	}
	return 0
}

func init() {
	// Assigned here rather than in the rootCmd literal: selectedLogLevel reads
	// rootCmd, which would otherwise be an initialization cycle.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := selectedLogLevel()
		if err != nil {
			return err
		}
		logger = newLogger(cmd)
		logger.SetLogLevel(level)
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = log.WithVerbosity(ctx, verbose)
		ctx = log.WithLogger(ctx, logger)
		cmd.SetContext(ctx)
		return nil
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default is ./%s when present)", constants.DefaultConfigFileName))
	rootCmd.PersistentFlags().StringVar(&extraCfgFile, "extra-config", "", "additional config file merged over the main config")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", fmt.Sprintf("dotenv file (default is ./%s)", constants.DefaultEnvFileName))
	rootCmd.PersistentFlags().StringVarP(&networkName, "network", "n", "", "network to use (default is the config's defaultNetwork)")
	rootCmd.PersistentFlags().StringVarP(&ansi, "ansi", "", "auto", "control when to print ANSI control characters (\"never\"|\"always\"|\"auto\")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose log output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (\"trace\"|\"debug\"|\"info\"|\"warn\"|\"error\"). --verbose implies debug")

	_ = viper.BindPFlag("network", rootCmd.PersistentFlags().Lookup("network"))
	_ = viper.BindPFlag("ansi", rootCmd.PersistentFlags().Lookup("ansi"))
	_ = rootCmd.RegisterFlagCompletionFunc("network", listNetworks)
}

// initConfig reads user defaults from ~/.deployctl.yaml and DEPLOYCTL_*
// environment variables.
func initConfig() {
	viper.SetEnvPrefix(constants.ExecutableName)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if home, err := homedir.Dir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName("." + constants.ExecutableName)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err == nil && verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}

	switch strings.ToLower(viper.GetString("ansi")) {
	case "always":
		fancyFeatures = true
	case "never":
		fancyFeatures = false
	default:
		fancyFeatures = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
}

// selectedLogLevel parses --log-level. --verbose raises the default to debug
// unless a level was given explicitly.
func selectedLogLevel() (log.LogLevel, error) {
	level, err := log.LogLevelFromString(logLevel)
	if err != nil {
		return level, err
	}
	if verbose && !rootCmd.PersistentFlags().Changed("log-level") {
		level = log.Debug
	}
	return level, nil
}

// newLogger keeps stdout for command results: logs go to stderr.
func newLogger(cmd *cobra.Command) log.Logger {
	if verbose {
		return &log.StdoutLogger{LogLevel: log.Debug, Out: cmd.ErrOrStderr(), Err: cmd.ErrOrStderr()}
	}
	return log.NewLogrusLogger(cmd.ErrOrStderr())
}

// withSpinner swaps the context logger for a spinner on interactive
// terminals. The returned stop function must always be called, with the
// command's error: the spinner only reports "done" when it is nil.
func withSpinner(cmd *cobra.Command) (context.Context, func(error)) {
	ctx := cmd.Context()
	if !fancyFeatures || verbose {
		return ctx, func(error) {}
	}
	spin := log.NewSpinnerLogger(log.NewTerminalSpinner(cmd.ErrOrStderr()))
	if level, err := selectedLogLevel(); err == nil {
		spin.SetLogLevel(level)
	}
	spin.Start()
	return log.WithLogger(ctx, spin), func(err error) {
		if err != nil {
			spin.Stop()
			return
		}
		spin.Done()
	}
}

func projectDir() (string, error) {
	if workingDir != "" {
		return filepath.Abs(workingDir)
	}
	return os.Getwd()
}

func loadConfig() (*config.Config, error) {
	dir, err := projectDir()
	if err != nil {
		return nil, err
	}
	return config.Load(&config.LoadOptions{
		WorkingDir:      dir,
		ConfigFile:      cfgFile,
		ExtraConfigFile: extraCfgFile,
		EnvFile:         envFile,
	})
}

func loadEnv() (*config.Env, error) {
	path := envFile
	if path == "" {
		dir, err := projectDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, constants.DefaultEnvFileName)
	}
	return config.LoadEnv(path)
}

// selectedNetwork resolves --network (or DEPLOYCTL_NETWORK), falling back to
// the config's default network.
func selectedNetwork(cfg *config.Config) (string, *config.NetworkConfig, error) {
	name := viper.GetString("network")
	if name == "" {
		name = cfg.DefaultNetwork
	}
	network, err := cfg.Network(name)
	if err != nil {
		return "", nil, err
	}
	return name, network, nil
}
