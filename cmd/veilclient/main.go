package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	veil "github.com/veilledger/veilclient/pkg"
)

func main() {
	var config veil.Config
	LoadConfig(&config)

	rootCmd := &cobra.Command{
		Use: "veilclient",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
			os.Exit(0)
		},
	}

	// Add flags for each configuration option
	rootCmd.PersistentFlags().StringVar(&config.Store.DBFile, "store-db-file", config.Store.DBFile, "Store DB file")
	rootCmd.PersistentFlags().StringVar(&config.Node.Protocol, "node-protocol", config.Node.Protocol, "Node protocol")
	rootCmd.PersistentFlags().StringVar(&config.Node.Host, "node-host", config.Node.Host, "Node host")
	rootCmd.PersistentFlags().IntVar(&config.Node.Port, "node-port", config.Node.Port, "Node port")
	rootCmd.PersistentFlags().IntVar(&config.Node.PollSeconds, "poll-seconds", config.Node.PollSeconds, "Sync polling interval in seconds")
	rootCmd.PersistentFlags().StringVar(&config.Logging.Level, "log-level", config.Logging.Level, "Log level")
	rootCmd.PersistentFlags().StringVar(&config.Logging.File, "log-file", config.Logging.File, "Rotating log file path")
	viper.BindPFlags(rootCmd.PersistentFlags())

	notesCmd := &cobra.Command{
		Use:   "notes [filter]",
		Short: "List tracked input notes (filter: all, pending, committed, consumed)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := "all"
			if len(args) > 0 {
				filter = args[0]
			}
			return ListNotes(config, filter)
		},
	}

	noteCmd := &cobra.Command{
		Use:   "note <id>",
		Short: "Show one input note by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ShowNote(config, args[0])
		},
	}

	txnsCmd := &cobra.Command{
		Use:     "txns [filter]",
		Aliases: []string{"transactions"},
		Short:   "List transactions (filter: all, uncommitted)",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := "all"
			if len(args) > 0 {
				filter = args[0]
			}
			return ListTransactions(config, filter)
		},
	}

	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "List tracked account ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ListAccounts(config)
		},
	}

	accountCmd := &cobra.Command{
		Use:   "account <id>",
		Short: "Show full account state by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ShowAccount(config, args[0])
		},
	}

	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "List monitored note tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ListTags(config)
		},
	}

	tagAddCmd := &cobra.Command{
		Use:   "add <tag>",
		Short: "Start monitoring a note tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return AddTag(config, args[0])
		},
	}
	tagsCmd.AddCommand(tagAddCmd)

	var follow bool
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Catch the store up with the node (--follow to keep polling)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Sync(config, follow)
		},
	}
	syncCmd.Flags().BoolVar(&follow, "follow", false, "Keep polling the node until interrupted")

	configCmd := &cobra.Command{
		Use:   "showconf",
		Short: "Print the config state and exit",
		Run: func(cmd *cobra.Command, args []string) {
			o, _ := json.MarshalIndent(config, ">", " ")
			fmt.Println(string(o))
			os.Exit(0)
		},
	}

	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(txnsCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// LoadConfig reads the optional config file named by VEIL_ENV (default
// "config") from the usual search paths. Missing files are fine: every
// option has a default and can be set by flag.
func LoadConfig(config *veil.Config) {
	*config = veil.LoadConfig("")

	configFileName, set := os.LookupEnv("VEIL_ENV")
	if set {
		viper.SetConfigName(configFileName)
	} else {
		viper.SetConfigName("config")
	}

	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/veilclient/")
	viper.AddConfigPath("$HOME/.veilclient")

	if err := viper.ReadInConfig(); err != nil {
		return // defaults and flags only
	}

	if err := viper.Unmarshal(config); err != nil {
		fmt.Printf("failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}
}
