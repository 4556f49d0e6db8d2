// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
	"github.com/edgeo-scada/bacnet-gateway/gateway"
)

// Set via -ldflags "-X main.version=..."
var version = "dev"

var (
	cfgFile string
	verbose bool

	logger *slog.Logger
	log    *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bacnet-gateway",
	Short: "HTTP gateway for BACnet/IP property reads",
	Long: `bacnet-gateway translates HTTP requests into BACnet/IP ReadProperty and
ReadPropertyMultiple requests and answers with the decoded values as JSON.

Examples:
  # Serve the HTTP API on port 8081
  bacnet-gateway serve --listen :8081

  # Read the present value of analog value 1 once
  bacnet-gateway read 192.168.1.100 analogValue:1

  # Read several properties in one request
  bacnet-gateway rpm 192.168.1.100 analogValue:1 analogValue:2=units`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if err := level.UnmarshalText([]byte(viper.GetString("log.level"))); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
		if viper.GetBool("verbose") {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		log = logrus.New()
		log.SetOutput(os.Stderr)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrusLevel(level))
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bacnet-gateway.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("local", "", "Local address to bind to (e.g., 0.0.0.0:47808)")
	flags.DurationP("timeout", "t", gateway.DefaultTimeout, "Default request timeout")
	flags.Duration("max-timeout", gateway.DefaultMaxTimeout, "Upper bound for per-request timeouts")
	flags.Uint16("max-apdu", bacnet.MaxAPDULength, "Maximum APDU length accepted")
	flags.String("bbmd", "", "BBMD address for foreign device registration")
	flags.Int("bbmd-port", bacnet.DefaultPort, "BBMD port")
	flags.Duration("bbmd-ttl", 15*time.Minute, "BBMD registration TTL")

	viper.BindPFlag("verbose", flags.Lookup("verbose"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("bacnet.local", flags.Lookup("local"))
	viper.BindPFlag("bacnet.timeout", flags.Lookup("timeout"))
	viper.BindPFlag("bacnet.max_timeout", flags.Lookup("max-timeout"))
	viper.BindPFlag("bacnet.max_apdu", flags.Lookup("max-apdu"))
	viper.BindPFlag("bacnet.bbmd", flags.Lookup("bbmd"))
	viper.BindPFlag("bacnet.bbmd_port", flags.Lookup("bbmd-port"))
	viper.BindPFlag("bacnet.bbmd_ttl", flags.Lookup("bbmd-ttl"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(rpmCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".bacnet-gateway")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BACNET_GATEWAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func logrusLevel(level slog.Level) logrus.Level {
	switch {
	case level <= slog.LevelDebug:
		return logrus.DebugLevel
	case level <= slog.LevelInfo:
		return logrus.InfoLevel
	case level <= slog.LevelWarn:
		return logrus.WarnLevel
	}
	return logrus.ErrorLevel
}

// createClient creates a BACnet client from the current configuration
func createClient() *bacnet.Client {
	opts := []bacnet.Option{
		bacnet.WithLocalAddress(viper.GetString("bacnet.local")),
		bacnet.WithTimeout(viper.GetDuration("bacnet.max_timeout")),
		bacnet.WithMaxAPDULength(uint16(viper.GetUint("bacnet.max_apdu"))),
		bacnet.WithLogger(logger),
	}

	if bbmd := viper.GetString("bacnet.bbmd"); bbmd != "" {
		opts = append(opts, bacnet.WithBBMD(bbmd, viper.GetInt("bacnet.bbmd_port"), viper.GetDuration("bacnet.bbmd_ttl")))
	}

	return bacnet.NewClient(opts...)
}

// newGateway creates the gateway on top of a connected client
func newGateway(client *bacnet.Client) *gateway.Gateway {
	return gateway.New(gateway.NewClientNetwork(client),
		gateway.WithTimeout(viper.GetDuration("bacnet.timeout")),
		gateway.WithMaxTimeout(viper.GetDuration("bacnet.max_timeout")),
		gateway.WithLogger(logger),
	)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bacnet-gateway version %s\n", version)
	},
}
