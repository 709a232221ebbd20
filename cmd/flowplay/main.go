// Command flowplay runs the flowkit demonstration scenarios in the terminal
// or streams them to HTTP clients as Server-Sent Events.
//
// Usage:
//
//	flowplay [--config path] list
//	flowplay [--config path] run [name|all]
//	flowplay [--config path] serve
//	flowplay version
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/flowkit/version"
)

const serviceName = "flowplay"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, serviceName+":", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to config.yml")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] list | run [name|all] | serve | version\n", serviceName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	command := "list"
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}
	switch command {
	case "list":
		return listScenarios(out)
	case "version":
		_, err := fmt.Fprintln(out, serviceName, version.Get().String())
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	switch command {
	case "run":
		target := "all"
		if len(rest) > 0 {
			target = rest[0]
		}
		return runScenarios(ctx, cfg, target, out)
	case "serve":
		return serve(ctx, cfg)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}
