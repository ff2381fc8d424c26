package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/endorses/ptmf2pcap/internal/pkg/cmdutil"
	"github.com/endorses/ptmf2pcap/internal/pkg/convert"
	"github.com/endorses/ptmf2pcap/internal/pkg/logger"
	"github.com/endorses/ptmf2pcap/internal/pkg/version"
)

var (
	cfgFile     string
	fileMode    bool
	dirMode     bool
	dumpHexFlag bool
	extFlag     string

	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "ptmf2pcap [-f <input_file> <output_file>] [-d <input_dir> <output_dir>]",
	Short: "ptmf2pcap converts SE2900 PTMF traces to PCAP",
	Long: fmt.Sprintf(`ptmf2pcap %s - converts PTMF trace files captured on SE2900-series
session border controllers into standard libpcap capture files.

With -f, converts a single file. With -d, converts every trace file found
directly in the input directory. Without arguments, the current directory
is both input and output directory.`, version.GetVersion()),
	Version: version.GetFullVersion(),
	Args:    cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		exitCode = run(cmd, args)
	},
}

// Execute runs the root command and returns the process exit code: the
// number of files that failed to convert, or 1 for a usage error.
func Execute() int {
	logger.Initialize()
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}

func run(cmd *cobra.Command, args []string) int {
	opts := convert.Options{
		DumpHex: cmdutil.GetBoolConfig("convert.dump_hex", dumpHexFlag),
	}
	ext := cmdutil.GetStringConfig("convert.extension", extFlag)

	var pairs []convert.Pair
	var err error
	switch {
	case fileMode && !dirMode && len(args) == 2:
		pairs = []convert.Pair{{Input: args[0], Output: args[1]}}
	case dirMode && !fileMode && len(args) == 2:
		pairs, err = convert.PairsFromDir(args[0], args[1], ext)
	case !fileMode && !dirMode && len(args) == 0:
		pairs, err = convert.PairsFromDir(".", ".", ext)
	default:
		cmd.Print(cmd.UsageString())
		return 1
	}
	if err != nil {
		logger.Error("could not list input files", "error", err)
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return 1
	}
	return convert.Run(pairs, opts, cmd.OutOrStdout())
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/ptmf2pcap/config.yaml)")
	rootCmd.Flags().BoolVarP(&fileMode, "file", "f", false, "convert a single file: <input_file> <output_file>")
	rootCmd.Flags().BoolVarP(&dirMode, "dir", "d", false, "convert a directory: <input_dir> <output_dir>")
	rootCmd.Flags().BoolVar(&dumpHexFlag, "dump-hex", false, "also write <input>.hex.txt with the decoded frame layout")
	rootCmd.Flags().StringVarP(&extFlag, "extension", "e", "", "input file extension in directory mode (default .ptmf)")

	// Usage requests exit nonzero so scripts can tell them from clean runs.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		cmd.Print(cmd.UsageString())
		exitCode = 1
	})
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".config", "ptmf2pcap"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetDefault("convert.extension", ".ptmf")
	viper.SetDefault("convert.dump_hex", false)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
