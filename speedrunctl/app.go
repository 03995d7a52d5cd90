package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Tokioace/N64-Nexus-sub006/shared/api"
	"github.com/Tokioace/N64-Nexus-sub006/shared/service"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	serverFlag  = "server"
	outputFlag  = "output"
	timeoutFlag = "timeout"

	outputJSON = "json"
	outputYAML = "yaml"
)

// describeError prefixes the coordinator's machine code when there is one.
func describeError(err error) string {
	if code := api.ErrorCode(err); code != "" {
		return fmt.Sprintf("%s: %v", code, err)
	}
	return err.Error()
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "speedrunctl",
		Usage:   "Drive a group speedrun competition coordinator",
		Version: version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    serverFlag,
				Aliases: []string{"s"},
				Usage:   "Base URL of the coordinator",
				Value:   "http://localhost:8083",
				EnvVars: []string{"SPEEDRUN_SERVER"},
			},
			&cli.StringFlag{
				Name:    outputFlag,
				Aliases: []string{"o"},
				Usage:   "Output format: json or yaml",
				Value:   outputJSON,
			},
			&cli.DurationFlag{
				Name:  timeoutFlag,
				Usage: "Per-request timeout",
				Value: 10 * time.Second,
			},
		},
		Commands: []*cli.Command{
			teamCommand(),
			eventCommand(),
			submitCommand(),
			reportCommand(),
			profileCommand(),
		},
	}
}

// call runs fn against a client built from the global flags and prints its result.
func call(c *cli.Context, fn func(ctx context.Context, client *service.CompetitionClient) (interface{}, error)) error {
	ctx, cancel := context.WithTimeout(c.Context, c.Duration(timeoutFlag))
	defer cancel()

	client := service.NewCompetitionClient(c.String(serverFlag), nil)
	result, err := fn(ctx, client)
	if err != nil {
		return err
	}
	return render(c.App.Writer, c.String(outputFlag), result)
}

func render(w io.Writer, format string, v interface{}) error {
	switch format {
	case outputYAML:
		// Round-trip through JSON so the field names match the API.
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic interface{}
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encoding to YAML failed: %w", err)
		}
		return enc.Close()
	case outputJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
