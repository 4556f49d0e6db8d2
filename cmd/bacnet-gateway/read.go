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
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/edgeo-scada/bacnet-gateway/gateway"
)

var outputFmt string

var readCmd = &cobra.Command{
	Use:   "read <address> <object> [property] [index]",
	Short: "Read one property",
	Long: `Read issues a single ReadProperty request and prints the decoded value.

Objects are written type:instance with the type given by name or number
(analogValue:1, analog-value:1, 2:1). The property defaults to presentValue.
An array index of 0 reads the array length.

Examples:
  bacnet-gateway read 192.168.1.100 analogValue:1
  bacnet-gateway read 192.168.1.100:47809 device:1234 objectName
  bacnet-gateway read 192.168.1.100 multiStateValue:1 stateText 2 -o table`,
	Args: cobra.RangeArgs(2, 4),
	RunE: runRead,
}

func init() {
	readCmd.Flags().StringVarP(&outputFmt, "output", "o", "json", "Output format (json, table)")
}

func runRead(cmd *cobra.Command, args []string) error {
	formatter, err := NewFormatter(outputFmt)
	if err != nil {
		return err
	}

	params := gateway.ReadParams{Address: args[0], Object: args[1]}
	if len(args) > 2 {
		params.Property = args[2]
	}
	if len(args) > 3 {
		n, err := strconv.ParseUint(args[3], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid array index %q", args[3])
		}
		index := uint32(n)
		params.ArrayIndex = &index
	}

	return withGateway(cmd, func(ctx context.Context, gw *gateway.Gateway) error {
		res, err := gw.Read(ctx, params)
		if err != nil {
			return err
		}
		return formatter.PrintResult(args[1], res)
	})
}

// withGateway connects a client for the duration of fn
func withGateway(cmd *cobra.Command, fn func(context.Context, *gateway.Gateway) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	client := createClient()
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	err := fn(ctx, newGateway(client))
	logger.Debug("client metrics", "requests", client.Metrics().Snapshot().RequestsSent)
	return err
}
