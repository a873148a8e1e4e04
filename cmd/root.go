package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/endorses/datmatch/cmd/bench"
	"github.com/endorses/datmatch/cmd/compile"
	"github.com/endorses/datmatch/cmd/dicts"
	"github.com/endorses/datmatch/cmd/lookup"
	"github.com/endorses/datmatch/cmd/scan"
	"github.com/endorses/datmatch/cmd/watch"
	"github.com/endorses/datmatch/internal/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "datmatch",
	Short: "datmatch finds your keywords",
	Long: `datmatch compiles keyword dictionaries into double-array Aho-Corasick
automata and scans text, files and packet captures with them.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func addSubCommandPalettes() {
	rootCmd.AddCommand(compile.CompileCmd)
	rootCmd.AddCommand(scan.ScanCmd)
	rootCmd.AddCommand(lookup.LookupCmd)
	rootCmd.AddCommand(dicts.DictsCmd)
	rootCmd.AddCommand(bench.BenchCmd)
	rootCmd.AddCommand(watch.WatchCmd)
}

func init() {
	cobra.OnInitialize(initConfig)

	addSubCommandPalettes()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.datmatch.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".datmatch")
	}

	viper.SetEnvPrefix("datmatch")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	logger.SetLevel(viper.GetString("log_level"))
}
