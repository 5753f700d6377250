// Replay runs a conversation transcript through the extraction pipeline
// without the HTTP server. Each non-empty line of the input file is one
// user turn; the tool prints the pipeline response after every turn.
//
// Usage:
//
//	replay transcript.txt
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"strategy-builder/internal/ai/llm"
	"strategy-builder/internal/extract"
	"strategy-builder/internal/pipeline"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: replay <transcript-file>")
		os.Exit(1)
	}

	file, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open transcript: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)

	clientCfg := llm.DefaultClientConfig()
	clientCfg.Provider = llm.Provider(getEnv("AI_LLM_PROVIDER", "claude"))
	clientCfg.APIKey = os.Getenv("AI_API_KEY")
	extractor := llm.NewExtractor(llm.NewClient(clientCfg), logger)

	builder := pipeline.New(extractor, logger)

	ctx := context.Background()
	var history []extract.Message
	conversationID := ""

	scanner := bufio.NewScanner(file)
	turn := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		turn++

		resp := builder.Build(ctx, pipeline.BuildRequest{
			Message:        line,
			ConversationID: conversationID,
			History:        history,
		})
		conversationID = resp.ConversationID

		history = append(history, extract.Message{Role: extract.RoleUser, Content: line})
		if resp.Question != nil {
			history = append(history, extract.Message{Role: extract.RoleAssistant, Content: resp.Question.Prompt})
		} else if resp.Message != "" {
			history = append(history, extract.Message{Role: extract.RoleAssistant, Content: resp.Message})
		}

		fmt.Printf("--- turn %d: %s\n", turn, line)
		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode response: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))

		if resp.Type == pipeline.ResponseStrategyComplete {
			fmt.Println("--- strategy complete")
			return
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read transcript: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
