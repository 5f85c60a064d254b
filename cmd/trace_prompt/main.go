package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"ai-helpdesk-be/internal/config"
	"ai-helpdesk-be/internal/pkg/logger"
	"ai-helpdesk-be/pkg/assistant"
	"ai-helpdesk-be/pkg/knowledge"

	"github.com/fatih/color"
)

// Prints the exact request the assistant would send for a question, and optionally sends it.
//
//	go run ./cmd/trace_prompt -q "¿Cómo solicito un monitor para trabajo remoto?" -ask
func main() {
	question := flag.String("q", "", "question to trace")
	ask := flag.Bool("ask", false, "also call the generation endpoint")
	flag.Parse()

	if *question == "" {
		color.Red("Usage: trace_prompt -q <question> [-ask]")
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.NewNopLogger()

	retriever := knowledge.NewBoundedRetriever(knowledge.NewKeywordRetriever(cfg.Retrieval.Latency), cfg.Retrieval.Timeout, log)

	acfg := assistant.DefaultConfig()
	acfg.Endpoint = cfg.Assistant.Endpoint
	acfg.AgentID = cfg.Assistant.AgentID
	acfg.APIKey = cfg.Assistant.APIKey
	acfg.Provider = cfg.Assistant.Provider
	acfg.Model = cfg.Assistant.Model
	acfg.Temperature = cfg.Assistant.Temperature
	acfg.Timeout = cfg.Assistant.Timeout

	orchestrator, err := assistant.New(acfg, retriever, nil, log)
	if err != nil {
		color.Red("Failed to build assistant: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req, err := orchestrator.ContextFor(ctx, *question, nil)
	if err != nil {
		color.Red("Failed to build request: %v", err)
		os.Exit(1)
	}

	color.Cyan("=== SYSTEM INSTRUCTION ===")
	fmt.Println(req.System)

	color.Cyan("\n=== RETRIEVED RECORDS (%d) ===", len(req.Records))
	for _, r := range req.Records {
		fmt.Printf("- %s | %s | %s\n", r.DocID, r.Title, r.Section)
	}

	color.Cyan("\n=== TURNS ===")
	for _, t := range req.Turns {
		color.Yellow("[%s]", t.Role)
		fmt.Println(t.Content)
	}

	if !*ask {
		return
	}

	color.Cyan("\n=== ANSWER ===")
	started := time.Now()
	res, err := orchestrator.AnswerWithContext(ctx, *question, nil)
	if err != nil {
		color.Red("Failed after %s: %v (retryable: %t)", time.Since(started).Round(time.Millisecond), err, assistant.IsRetryable(err))
		os.Exit(1)
	}

	b, _ := json.MarshalIndent(res.Answer, "", "  ")
	fmt.Println(string(b))
	color.Green("Action: %s, confidence %.2f, in %s", res.Answer.Action, res.Answer.ConfidenceLevel, time.Since(started).Round(time.Millisecond))
	for _, s := range res.UnverifiedSources {
		color.Red("Unverified source: %s", s.DocID)
	}
}
