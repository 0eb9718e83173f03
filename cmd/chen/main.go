// Command chen is the Chen Lang CLI: compile and run `.ch` source, or
// compile it to a standalone bytecode file.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chen-lang/chen/pkg/config"
	"github.com/chen-lang/chen/pkg/logging"
)

var (
	cfgPath string
	cfg     *config.Config
	logger  *logging.Logger
)

func main() {
	root := &cobra.Command{
		Use:   "chen",
		Short: "Chen Lang compiler and virtual machine",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "chen.yaml", "path to chen.yaml")

	root.AddCommand(newRunCommand())
	root.AddCommand(newBuildCommand())

	cobra.OnInitialize(func() {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("failed to load config: %v", err))
			os.Exit(2)
		}
		logger, err = logging.NewLogger(logging.LoggerConfig{MinLevel: logging.INFO})
		if err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("failed to start logger: %v", err))
			os.Exit(2)
		}
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("%v", err))
		os.Exit(1)
	}
}
