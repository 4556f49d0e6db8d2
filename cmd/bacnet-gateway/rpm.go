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
	"time"

	"github.com/spf13/cobra"

	"github.com/edgeo-scada/bacnet-gateway/gateway"
)

var rpmTimeout time.Duration

var rpmCmd = &cobra.Command{
	Use:   "rpm <address> <object[=property]>...",
	Short: "Read several properties in one request",
	Long: `Rpm issues one ReadPropertyMultiple request for every object=property
pair and prints the results keyed by object. A pair without a property reads
presentValue; the property "all" asks the device for every property.

Examples:
  bacnet-gateway rpm 192.168.1.100 analogValue:1 analogValue:2=units
  bacnet-gateway rpm 192.168.1.100 device:1234=all -o table`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRPM,
}

func init() {
	rpmCmd.Flags().StringVarP(&outputFmt, "output", "o", "json", "Output format (json, table)")
	rpmCmd.Flags().DurationVar(&rpmTimeout, "request-timeout", 0, "Timeout for this request (default from --timeout)")
}

func runRPM(cmd *cobra.Command, args []string) error {
	formatter, err := NewFormatter(outputFmt)
	if err != nil {
		return err
	}
	objects, err := parseObjectList(args[1:])
	if err != nil {
		return err
	}

	return withGateway(cmd, func(ctx context.Context, gw *gateway.Gateway) error {
		res, err := gw.ReadMultiple(ctx, gateway.BatchParams{
			Address: args[0],
			Objects: objects,
			Timeout: rpmTimeout,
		})
		if err != nil {
			return err
		}
		return formatter.PrintResult("", res)
	})
}
