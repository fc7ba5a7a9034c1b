package main

import (
	"fmt"
	"os"

	"github.com/franz/jp3-organiser/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "jp3",
		Short: "Manage a jp3 music library for the playback device",
		Long: `jp3 maintains the music library a jp3 player reads from its storage.

Audio files are copied into jp3/music/, their metadata is recorded in the
binary catalogue jp3/metadata/library.bin and playlists live in
jp3/playlists/. Deletes and edits are soft until "jp3 compact" rewrites
the catalogue.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./jp3.yaml)")
	rootCmd.PersistentFlags().StringP("library", "l", ".", "directory containing (or to contain) the jp3 folder")
	rootCmd.PersistentFlags().String("journal", "jp3-journal.db", "operation history database (empty disables)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	viper.BindPFlag("library", rootCmd.PersistentFlags().Lookup("library"))
	viper.BindPFlag("journal", rootCmd.PersistentFlags().Lookup("journal"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("jp3")
		viper.SetConfigType("yaml")
	}

	// JP3_LIBRARY, JP3_JOURNAL, ...
	viper.SetEnvPrefix("JP3")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
