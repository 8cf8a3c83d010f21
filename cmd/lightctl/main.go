// Command lightctl queries a running light level daemon.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	grpcAdapter "github.com/quentinrf/lightlevel/internal/adapters/grpc"
	"github.com/quentinrf/lightlevel/internal/channel"
	"github.com/quentinrf/lightlevel/internal/domain"
	"github.com/quentinrf/lightlevel/internal/service"
	"github.com/quentinrf/lightlevel/pkg/tlsconfig"
)

const (
	flagAddr    = "addr"
	flagChannel = "channel"
	flagTimeout = "timeout"
	flagTLSCert = "tls-cert"
	flagTLSKey  = "tls-key"
	flagTLSCA   = "tls-ca"
	flagMethod  = "method"
	flagArgs    = "args"
	flagUnit    = "unit"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "lightctl: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "lightctl",
		Usage:  "query the ambient light level daemon",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagAddr,
				Value:   "localhost:50051",
				Usage:   "daemon address",
				EnvVars: []string{"LIGHTLEVEL_ADDR"},
			},
			&cli.StringFlag{
				Name:  flagChannel,
				Value: service.ChannelName,
				Usage: "method channel name",
			},
			&cli.DurationFlag{
				Name:  flagTimeout,
				Value: 5 * time.Second,
				Usage: "per-call timeout",
			},
			&cli.StringFlag{Name: flagTLSCert, Usage: "client certificate `FILE`"},
			&cli.StringFlag{Name: flagTLSKey, Usage: "client key `FILE`"},
			&cli.StringFlag{Name: flagTLSCA, Usage: "CA certificate `FILE`; enables TLS"},
		},
		Commands: []*cli.Command{
			{
				Name:  "lux",
				Usage: "read the current light level",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagUnit,
						Value: string(domain.UnitLux),
						Usage: "unit the daemon reports in (lux or normalized), used for the category",
					},
				},
				Action: luxAction,
			},
			{
				Name:      "invoke",
				Usage:     "call an arbitrary method and print the JSON result",
				ArgsUsage: " ",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagMethod, Required: true, Usage: "method name"},
					&cli.StringFlag{Name: flagArgs, Usage: "method arguments as JSON"},
				},
				Action: invokeAction,
			},
		},
	}
}

func luxAction(c *cli.Context) error {
	result, err := call(c, channel.MethodCall{Method: service.MethodGetLuxValue})
	if err != nil {
		return err
	}

	value, ok := result.(float64)
	if !ok {
		return fmt.Errorf("unexpected result type %T", result)
	}

	sample, err := domain.NewLightSample(value, domain.Unit(c.String(flagUnit)))
	if err != nil {
		return err
	}
	if !sample.IsKnown() {
		fmt.Fprintln(c.App.Writer, "no reading yet")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "%g %s (%s)\n", sample.Value, sample.Unit, sample.Category())
	return nil
}

func invokeAction(c *cli.Context) error {
	mc := channel.MethodCall{Method: c.String(flagMethod)}
	if raw := c.String(flagArgs); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mc.Arguments); err != nil {
			return fmt.Errorf("parse --args: %w", err)
		}
	}

	result, err := call(c, mc)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func call(c *cli.Context, mc channel.MethodCall) (any, error) {
	creds, err := transportCredentials(c)
	if err != nil {
		return nil, err
	}

	client, err := grpcAdapter.NewClient(c.String(flagAddr), creds)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(c.Context, c.Duration(flagTimeout))
	defer cancel()

	return client.Invoke(ctx, c.String(flagChannel), mc)
}

func transportCredentials(c *cli.Context) (credentials.TransportCredentials, error) {
	if c.String(flagTLSCA) == "" {
		return insecure.NewCredentials(), nil
	}
	tlsCfg, err := tlsconfig.LoadClientTLS(c.String(flagTLSCert), c.String(flagTLSKey), c.String(flagTLSCA))
	if err != nil {
		return nil, err
	}
	return credentials.NewTLS(tlsCfg), nil
}
