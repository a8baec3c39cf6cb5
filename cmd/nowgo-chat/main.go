// nowgo-chat is a command-line client for the NowGo-LLM gRPC service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/orchestrator"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/rpc"
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("nowgo-chat"),
		kong.Description("Talk to a NowGo-LLM server over gRPC."),
		kong.UsageOnError(),
	)
	ctx.BindTo(os.Stdout, (*io.Writer)(nil))
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}

func (g *Globals) logger() *slog.Logger {
	level := slog.LevelWarn
	if g.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (g *Globals) dial() (*rpc.Client, error) {
	return rpc.NewClient(rpc.DefaultClientConfig(g.Addr), g.logger())
}

// Run sends the prompt.
func (a *AskCmd) Run(g *Globals, out io.Writer) error {
	prompt := strings.TrimSpace(strings.Join(a.Prompt, " "))
	if prompt == "" {
		return errors.New("prompt cannot be empty")
	}

	client, err := g.dial()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), g.Timeout)
	defer cancel()

	reply, err := client.Interactive(ctx, a.request(prompt))
	if err != nil {
		return err
	}

	if a.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]string{
			"user_prompt":        reply.UserPrompt,
			"assistant_response": reply.AssistantResponse,
			"persona_used":       reply.PersonaUsed,
			"exchange_id":        reply.ExchangeID,
		})
	}
	_, err = fmt.Fprintf(out, "[%s]\n%s\n", reply.PersonaUsed, reply.AssistantResponse)
	return err
}

func (a *AskCmd) request(prompt string) orchestrator.Request {
	req := orchestrator.Request{
		UserID:         a.User,
		CompanyID:      a.Company,
		Prompt:         prompt,
		ModuleAccessed: a.Module,
	}
	if len(a.Data) > 0 {
		req.CurrentInteractionData = make(map[string]any, len(a.Data))
		for k, v := range a.Data {
			req.CurrentInteractionData[k] = v
		}
	}
	return req
}

// Run prints the serving status.
func (h *HealthCmd) Run(g *Globals, out io.Writer) error {
	client, err := g.dial()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), g.Timeout)
	defer cancel()

	status, err := client.Health(ctx)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, status.String()); err != nil {
		return err
	}
	if status != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("server is %s", status)
	}
	return nil
}
