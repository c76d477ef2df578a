package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sqlsentinel",
	Short: "Pre-execution diagnostic analysis for SQL SELECT statements",
	Long: `sqlsentinel runs EXPLAIN ANALYZE against a SELECT statement and grades
what the plan actually does: access type, scan efficiency, join cost,
and scalability risk as the table grows.

It tells you whether a query is healthy before it ships, not after it
shows up in a slow query log.`,
}

// Execute is called by main.main(). It adds all child commands to the root
// command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sqlsentinel/config.yaml)")
	rootCmd.PersistentFlags().String("driver", "", "driver: mysql, pgsql, sqlite")
	rootCmd.PersistentFlags().StringP("host", "H", "", "database host")
	rootCmd.PersistentFlags().IntP("port", "P", 0, "database port")
	rootCmd.PersistentFlags().StringP("user", "u", "", "database user")
	rootCmd.PersistentFlags().StringP("password", "p", "", "database password (prompted for when not given)")
	rootCmd.PersistentFlags().Lookup("password").NoOptDefVal = "" // empty: -p still requires a value
	rootCmd.PersistentFlags().StringP("database", "d", "", "target database")
	rootCmd.PersistentFlags().StringP("socket", "S", "", "unix socket path")
	rootCmd.PersistentFlags().String("path", "", "SQLite file path (ignored for other drivers)")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format: text, plain, json, markdown")
	rootCmd.PersistentFlags().StringP("environment", "e", "local", "environment name, gates hypothetical-index simulation")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "show additional debug info")

	flagNames := []string{"driver", "host", "port", "user", "password", "database", "socket", "path", "format", "environment", "verbose"}
	for _, name := range flagNames {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		viper.AddConfigPath(home + "/.sqlsentinel")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SQLSENTINEL")
	viper.AutomaticEnv()

	// Silently ignore missing config file — it's optional
	if err := viper.ReadInConfig(); err == nil {
		// Map nested config structure to flat keys that flags expect.
		// Only set these if the flags haven't been explicitly set by the user.
		mappings := []struct {
			flag string
			key  string
		}{
			{"driver", "connections.default.driver"},
			{"host", "connections.default.host"},
			{"port", "connections.default.port"},
			{"user", "connections.default.user"},
			{"database", "connections.default.database"},
			{"socket", "connections.default.socket"},
			{"path", "connections.default.path"},
			{"format", "defaults.format"},
			{"environment", "defaults.environment"},
		}
		for _, m := range mappings {
			if !rootCmd.PersistentFlags().Changed(m.flag) && viper.IsSet(m.key) {
				viper.Set(m.flag, viper.Get(m.key))
			}
		}
	}
}
