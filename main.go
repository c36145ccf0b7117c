// SPDX-FileCopyrightText: 2025 2025 Lukas Heindl
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alexflint/go-arg"
)

// arguments holds command-line arguments parsed by go-arg
type arguments struct {
	Program    string   `arg:"positional,required" help:"CGI program to run for the request"`
	Args       []string `arg:"positional" help:"Arguments passed verbatim to the CGI program (separate with --)"`
	LocalIP    string   `arg:"--local-ip,env:TCPLOCALIP" help:"Local address of the connection, used as SERVER_NAME (default 127.0.0.1)"`
	LocalPort  string   `arg:"--local-port,env:TCPLOCALPORT" help:"Local port of the connection, used as SERVER_PORT (default 80)"`
	Root       string   `arg:"-r,--root" help:"Only run the program if it lies below this directory"`
	Strict     bool     `arg:"--strict" help:"Reject header names that are not valid HTTP tokens"`
	ForwardErr bool     `arg:"-f,--forward-stderr" help:"Forward CGI stderr to the client instead of host stderr"`
	Listen     string   `arg:"-l,--listen" help:"Socket URL (tcp:host:port or unix:/path) to accept requests on. Default: stdin/stdout"`
	Timeout    int      `arg:"-t,--timeout" help:"Idle timeout in seconds for --listen; exit if no new request within this period"`
	Workers    int      `arg:"-w,--workers" help:"Max concurrent requests for --listen"`
	LogFormat  string   `arg:"--log-format" help:"Log format: 'json' (default) or 'text'"`
	LogLevel   string   `arg:"--log-level" help:"Log level: debug, info (default), warn or error"`
}

func (arguments) Version() string {
	return serverSoftware
}

func (arguments) Description() string {
	return "Runs a CGI program for a single HTTP/1.0 request read from stdin (inetd/UCSPI style)."
}

// parse the arguments with go-arg. Uses MustParse -> exits on invalid arguments
func parseArgs() arguments {
	args := arguments{
		Workers:   1,
		LogFormat: "json",
		LogLevel:  "info",
	}
	arg.MustParse(&args)
	return args
}

// serveStdio handles the one request connected to stdin/stdout and returns the exit code
func serveStdio(g *gateway, args arguments) int {
	amb := Ambient{LocalIP: args.LocalIP, LocalPort: args.LocalPort}
	if err := g.serve(context.Background(), os.Stdin, os.Stdout, amb); err != nil {
		slog.Error("request failed", "error", err)
		return 1
	}
	return 0
}

func main() {
	args := parseArgs()
	slog.SetDefault(setupLogger(args.LogFormat, args.LogLevel))
	slog.Debug("starting cgid-go", "program", args.Program, "listen", args.Listen)

	g := newGateway(args)
	if args.Listen == "" {
		os.Exit(serveStdio(g, args))
	}
	os.Exit(serveListener(g, args))
}
