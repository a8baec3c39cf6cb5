// Package main defines the nowgo-chat CLI structure using kong.
package main

import "time"

// Globals are flags shared by every command.
type Globals struct {
	Addr    string        `default:"localhost:9090" env:"NOWGO_GRPC_ADDR" help:"gRPC address of the NowGo-LLM server"`
	Timeout time.Duration `default:"90s" help:"Per-call timeout"`
	Verbose bool          `short:"v" help:"Enable debug logging"`
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Ask    AskCmd    `cmd:"" help:"Send one prompt and print the reply"`
	Health HealthCmd `cmd:"" help:"Check the server's gRPC health status"`
}

// AskCmd sends one interactive chat request.
type AskCmd struct {
	User    string            `short:"u" required:"" help:"User identifier"`
	Company string            `short:"c" required:"" help:"Company identifier"`
	Module  string            `short:"m" help:"Module the user is working in"`
	Data    map[string]string `short:"d" help:"Interaction data key=value (repeatable)"`
	JSON    bool              `help:"Print the full reply as JSON"`
	Prompt  []string          `arg:"" help:"Prompt text"`
}

// HealthCmd checks the server's health service.
type HealthCmd struct{}
