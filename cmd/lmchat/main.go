// Command lmchat is an interactive REPL that streams chat completions from a
// local OpenAI-compatible inference server. Reasoning output is rendered
// dimmed, token usage is printed after each turn, and Ctrl+C cancels the
// in-flight response without leaving the REPL.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/modelfold/lms-sdk-go/lmchat"
	"github.com/modelfold/lms-sdk-go/lmwire"
)

const (
	defaultBaseURL      = lmchat.DefaultBaseURL
	defaultSystemPrompt = "You are a helpful assistant."
	defaultTemperature  = 0.7
	defaultLogLevel     = "warn"

	dim   = "\x1b[2m"
	reset = "\x1b[0m"
)

// CLI is the flag surface of the lmchat command. Flags, env vars, and the
// optional YAML config file feed the same fields; flags win.
type CLI struct {
	Config      string  `short:"c" help:"Path to YAML config file." type:"path"`
	BaseURL     string  `help:"Inference server base URL." default:"http://localhost:1234/v1" env:"LMCHAT_BASE_URL"`
	Model       string  `help:"Model id. Defaults to the first model the server lists." env:"LMCHAT_MODEL"`
	Temperature float64 `help:"Sampling temperature." default:"0.7"`
	DraftModel  string  `help:"Draft model for speculative decoding." env:"LMCHAT_DRAFT_MODEL"`
	System      string  `help:"System prompt." default:"You are a helpful assistant."`
	LogLevel    string  `help:"Log level (debug, info, warn, error)." default:"warn" env:"LMCHAT_LOG_LEVEL"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("lmchat"),
		kong.Description("Interactive chat REPL for a local inference server."),
	)
	ctx.FatalIfErrorf(applyConfigFile(&cli))
	setupLogger(cli.LogLevel)

	client := lmchat.NewClient(lmchat.ClientConfig{BaseURL: cli.BaseURL})

	model := cli.Model
	if model == "" {
		models := client.ListModels(context.Background())
		if len(models) == 0 {
			fmt.Fprintf(os.Stderr, "no model specified and none listed by %s\n", cli.BaseURL)
			os.Exit(1)
		}
		model = models[0].ID
		fmt.Printf("using model %s\n", model)
	}

	var history []lmwire.ChatMessage

	// Read stdin lines in a background goroutine so we can select on signals.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		fmt.Print("you> ")

		var line string
		select {
		case l, ok := <-lines:
			if !ok {
				return // EOF
			}
			line = l
		case <-sig:
			fmt.Println()
			return
		}

		switch strings.TrimSpace(line) {
		case "exit", "quit":
			return
		case "":
			continue
		}

		history = append(history, lmwire.ChatMessage{Role: "user", Content: line})

		answer, err := turn(client, &cli, model, history, sig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
			continue
		}
		history = append(history, lmwire.ChatMessage{Role: "assistant", Content: answer})
	}
}

// turn streams one assistant response, rendering events as they arrive.
// A signal during streaming cancels the stream and returns what was received.
func turn(client *lmchat.Client, cli *CLI, model string, history []lmwire.ChatMessage, sig <-chan os.Signal) (string, error) {
	temp := cli.Temperature
	stream, err := client.Stream(context.Background(), lmchat.StreamRequest{
		Model:        model,
		SystemPrompt: cli.System,
		Messages:     history,
		Temperature:  &temp,
		DraftModel:   cli.DraftModel,
	})
	if err != nil {
		return "", err
	}

	fmt.Print("assistant> ")
	var answer strings.Builder
	events := stream.Events()
	for {
		select {
		case <-sig:
			client.Cancel()
			for range events {
			}
			fmt.Println("\n(interrupted)")
			return answer.String(), stream.Err()
		case ev, ok := <-events:
			if !ok {
				fmt.Println()
				return answer.String(), stream.Err()
			}
			switch ev.Kind {
			case lmchat.EventText:
				fmt.Print(ev.Text)
				answer.WriteString(ev.Text)
			case lmchat.EventReasoning:
				fmt.Print(dim + ev.Text + reset)
			case lmchat.EventToolCallEnd:
				fmt.Printf("\n[tool call %s(%s)]\n", ev.ToolCall.Name, ev.ToolCall.Arguments)
			case lmchat.EventUsage:
				fmt.Printf("\n%s[tokens: prompt=%d completion=%d total=%d]%s",
					dim, ev.Usage.PromptTokens, ev.Usage.CompletionTokens, ev.Usage.TotalTokens, reset)
			}
		}
	}
}
