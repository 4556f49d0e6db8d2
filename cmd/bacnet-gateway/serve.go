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
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgeo-scada/bacnet-gateway/gateway"
	"github.com/edgeo-scada/bacnet-gateway/internal/httpapi"
	"github.com/edgeo-scada/bacnet-gateway/internal/uplink"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve answers HTTP read requests through one shared BACnet/IP client.

Routes:
  GET  /read/<address>/<object>[/<property>[/<index>]]
  POST /readpropertymultiple/   {"address": "...", "bacnet_objects": [{"object": "...", "property": "..."}]}
  GET  /metrics

The X-bacnet-timeout header overrides the request timeout in seconds.

When uplink.broker is configured the listed objects are also polled every
uplink.interval and published as JSON to uplink.topic.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("listen", ":8081", "HTTP listen address")
	serveCmd.Flags().Duration("read-header-timeout", 10*time.Second, "HTTP read header timeout")

	viper.BindPFlag("http.listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("http.read_header_timeout", serveCmd.Flags().Lookup("read-header-timeout"))

	viper.SetDefault("uplink.interval", uplink.DefaultInterval)
	viper.SetDefault("uplink.client_id", "bacnet-gateway")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := createClient()
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	gw := newGateway(client)

	if viper.GetString("uplink.broker") != "" {
		poller, closePublisher, err := startUplink(gw)
		if err != nil {
			return err
		}
		defer closePublisher()
		go poller.Run(ctx)
	}

	srv := httpapi.New(gw,
		httpapi.WithLogger(log),
		httpapi.WithClientMetrics(client.Metrics()),
		httpapi.WithReadHeaderTimeout(viper.GetDuration("http.read_header_timeout")),
	)
	return srv.ListenAndServe(ctx, viper.GetString("http.listen"))
}

// startUplink connects the MQTT publisher and builds the poller from the
// uplink.* configuration
func startUplink(gw *gateway.Gateway) (*uplink.Poller, func() error, error) {
	objects, err := parseObjectList(viper.GetStringSlice("uplink.objects"))
	if err != nil {
		return nil, nil, fmt.Errorf("uplink.objects: %w", err)
	}

	pub := uplink.NewMQTTPublisher(uplink.MQTTConfig{
		Broker:   viper.GetString("uplink.broker"),
		ClientID: viper.GetString("uplink.client_id"),
		Username: viper.GetString("uplink.username"),
		Password: viper.GetString("uplink.password"),
		QoS:      byte(viper.GetUint("uplink.qos")),
		Retain:   viper.GetBool("uplink.retain"),
	}, log)
	if err := pub.Connect(); err != nil {
		return nil, nil, err
	}

	poller, err := uplink.NewPoller(gw, pub, uplink.Config{
		Address:  viper.GetString("uplink.address"),
		Objects:  objects,
		Topic:    viper.GetString("uplink.topic"),
		Interval: viper.GetDuration("uplink.interval"),
		Timeout:  viper.GetDuration("uplink.timeout"),
	}, log)
	if err != nil {
		pub.Close()
		return nil, nil, err
	}
	return poller, pub.Close, nil
}

// parseObjectList parses "object[=property]" entries
func parseObjectList(entries []string) ([]gateway.ObjectProperty, error) {
	objects := make([]gateway.ObjectProperty, 0, len(entries))
	for _, entry := range entries {
		op, err := gateway.ParseObjectProperty(entry)
		if err != nil {
			return nil, err
		}
		objects = append(objects, op)
	}
	return objects, nil
}
