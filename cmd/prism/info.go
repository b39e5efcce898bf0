package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/prismrt/prism/pkg/rt/vulkanrt"
	"github.com/prismrt/prism/pkg/session"
)

type backendInfo struct {
	Backend   string `json:"backend"`
	Supported bool   `json:"supported"`
	Device    string `json:"device,omitempty"`
	Probe     string `json:"probe,omitempty"`
}

func infoCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:  "info",
		Usage: "Report the active ray tracing backend and probe results",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "emit machine-readable output",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			// Session construction logs are noise here.
			sess := session.New(session.Options{Logger: log.New(io.Discard)})
			defer sess.Close()

			info := backendInfo{
				Backend:   sess.BackendName(),
				Supported: sess.Supported(),
			}
			if probed, err := vulkanrt.Detect(); err != nil {
				info.Probe = err.Error()
			} else {
				info.Device = probed.DeviceName
			}

			if asJSON {
				out, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: encode: %v", err), 1)
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Printf("backend:   %s\n", info.Backend)
			fmt.Printf("supported: %v\n", info.Supported)
			if info.Device != "" {
				fmt.Printf("device:    %s\n", info.Device)
			}
			if info.Probe != "" {
				fmt.Fprintf(os.Stderr, "probe:     %s\n", info.Probe)
			}
			return nil
		},
	}
}
