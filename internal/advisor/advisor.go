// Package advisor wraps the listing engine with an LLM-backed chat
// assistant: user questions become structured filter intents, the directory
// answers the intent, and a second completion phrases the result.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/nativeways/pathways/internal/listing"
	"github.com/nativeways/pathways/internal/llm"
	"github.com/nativeways/pathways/pkg/models"
)

// intentParserSystemPrompt instructs the LLM to parse user questions into
// structured JSON intents. The intent fields deliberately mirror the public
// listing query parameters, so a malformed intent degrades exactly like a
// malformed query string: leniently, never with an error.
const intentParserSystemPrompt = `You are a query parser for Pathways, a directory of Native-American resources, scholarships, and grants. Parse the user's question into a structured JSON intent.

Fields (all optional except "kind"):
- "kind": one of "grant", "scholarship", "resource". Pick the best fit; default "grant" for funding questions.
- "type": a category such as "education", "arts", "business", "health", "housing", "language", "undergraduate", "graduate".
- "tags": comma-separated topic keywords, e.g. "stem,undergraduate".
- "amount": a numeric range "min-max", e.g. "1000-5000". Use 999999999 as max for "and up".
- "deadline": "rolling" for no-deadline items, or "next-N" for deadlines within N days.
- "query": free-text search terms when the question names a specific program or organization.

Output format — return ONLY valid JSON, no explanation:
{"kind":"grant","type":"education","tags":"youth","amount":"","deadline":"","query":""}

Examples:
- "scholarships for undergrads in nursing" → {"kind":"scholarship","type":"undergraduate","tags":"nursing"}
- "grants over $10k closing in the next month" → {"kind":"grant","amount":"10000-999999999","deadline":"next-30"}
- "anything from the First Nations Development Institute?" → {"kind":"grant","query":"First Nations Development Institute"}
- "housing help with no application deadline" → {"kind":"resource","type":"housing","deadline":"rolling"}`

// replyFormatterTemplate is used for the second LLM call that converts the
// matched listings into a conversational answer.
const replyFormatterTemplate = `You are answering a user's question about Native-American resources, scholarships, and grants using the Pathways directory.

User question: %s
Matching listings (JSON):
%s

Write a warm, concise answer grounded in the listings above. Mention listing titles and deadlines where relevant. If the list is empty, say no current matches were found and suggest broadening the search. Never invent listings that are not in the data. Keep the response under 200 words.`

// Reply is one answered advisor turn.
type Reply struct {
	Question string           `json:"question"`
	Answer   string           `json:"answer"`
	Listings []models.Listing `json:"listings"`
	Model    string           `json:"model"`
}

// Advisor answers directory questions through a two-phase LLM pipeline.
type Advisor struct {
	provider llm.Provider
	engine   *listing.Engine
	resolver *listing.Resolver
	pageSize int
	logger   *zap.Logger
}

// New creates an Advisor. pageSize caps how many listings one reply may cite.
func New(provider llm.Provider, engine *listing.Engine, resolver *listing.Resolver, pageSize int, logger *zap.Logger) *Advisor {
	return &Advisor{
		provider: provider,
		engine:   engine,
		resolver: resolver,
		pageSize: pageSize,
		logger:   logger,
	}
}

// intent is the structured form of a user question.
type intent struct {
	Kind     string `json:"kind"`
	Type     string `json:"type"`
	Tags     string `json:"tags"`
	Amount   string `json:"amount"`
	Deadline string `json:"deadline"`
	Query    string `json:"query"`
}

// Ask executes the full pipeline: parse the question into an intent (low
// temperature), resolve it against the directory, and phrase the results
// (moderate temperature).
func (a *Advisor) Ask(ctx context.Context, question string) (*Reply, error) {
	in, model, err := a.parseIntent(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("parse intent: %w", err)
	}

	items, err := a.executeIntent(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("execute intent: %w", err)
	}

	answer, err := a.formatReply(ctx, question, items)
	if err != nil {
		return nil, fmt.Errorf("format reply: %w", err)
	}

	return &Reply{
		Question: question,
		Answer:   answer,
		Listings: items,
		Model:    model,
	}, nil
}

// parseIntent sends the question to the LLM with a system prompt that
// instructs it to return a JSON intent object.
func (a *Advisor) parseIntent(ctx context.Context, question string) (*intent, string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: intentParserSystemPrompt},
		{Role: llm.RoleUser, Content: question},
	}

	resp, err := a.provider.Chat(ctx, messages,
		llm.WithTemperature(0.1),
		llm.WithMaxTokens(256),
	)
	if err != nil {
		return nil, "", err
	}

	var in intent
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Content)), &in); err != nil {
		return nil, "", fmt.Errorf("LLM returned invalid JSON: %w", err)
	}

	return &in, resp.Model, nil
}

// executeIntent resolves the intent against the directory. A free-text query
// uses the search resolver; everything else becomes listing criteria built
// through the same lenient parser the public endpoints use.
func (a *Advisor) executeIntent(ctx context.Context, in *intent) ([]models.Listing, error) {
	kind := models.Kind(in.Kind)
	if !kind.Valid() {
		kind = models.KindGrant
	}

	if q := strings.TrimSpace(in.Query); q != "" {
		return a.resolver.Search(ctx, kind, q)
	}

	params := url.Values{}
	params.Set("type", in.Type)
	params.Set("tags", in.Tags)
	params.Set("amount", in.Amount)
	params.Set("deadline", in.Deadline)

	page, err := a.engine.Page(ctx, listing.ParseCriteria(params, kind, a.pageSize))
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// formatReply sends a second LLM call to convert the matched listings into a
// conversational answer.
func (a *Advisor) formatReply(ctx context.Context, question string, items []models.Listing) (string, error) {
	itemsJSON, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		itemsJSON = []byte("[]")
	}

	prompt := fmt.Sprintf(replyFormatterTemplate, question, string(itemsJSON))

	resp, err := a.provider.Generate(ctx, prompt,
		llm.WithTemperature(0.7),
		llm.WithMaxTokens(1024),
	)
	if err != nil {
		return "", err
	}

	return resp.Content, nil
}
