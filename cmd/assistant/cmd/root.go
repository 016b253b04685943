package cmd

import (
	"fmt"
	"os"

	"knowledge-workspace/internal/assistantconfig"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     assistantconfig.Config
)

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Terminal assistant for the knowledge workspace",
	Long: `assistant answers questions about your workspace documents.

Commands:
  login/logout/whoami  Manage the session with the workspace server
  docs                 Browse documents and see which ones are pinned
  context              Pin or unpin documents used as chat context
  chat                 Interactive chat session
  ask                  Ask a single question
  history              Show or clear the chat history`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
}

func initConfig() {
	loaded, err := assistantconfig.Load(viper.GetViper(), cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config file error: %v (using defaults)\n", err)
	}
	cfg = loaded
}
