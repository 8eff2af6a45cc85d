package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

const geminiModel = "gemini-2.5-flash"

// ratePrompt asks for the two quotes this tracker cares about: the USD/EGP
// parallel-market rate and the price of one gram of 21-carat gold in EGP.
const ratePrompt = `Search the web for the current exchange rates in Egypt and answer
with a single JSON object, no markdown, no prose:

{"usdRate": <current USD to EGP exchange rate>, "goldRate": <current price in EGP of one gram of 21 carat gold>}

Both values must be plain positive numbers.`

// GeminiFetcher fetches exchange rates by asking a Gemini model grounded with
// Google Search. It implements RateFetcher.
type GeminiFetcher struct {
	client *genai.Client
	model  string
}

// NewGeminiFetcher creates a fetcher using ambient credentials
// (GEMINI_API_KEY or application default credentials).
func NewGeminiFetcher(ctx context.Context) (*GeminiFetcher, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot create genai client: %w", err)
	}
	return &GeminiFetcher{client: client, model: geminiModel}, nil
}

var _ RateFetcher = (*GeminiFetcher)(nil)

// FetchRates asks the model for current quotes and parses its JSON answer.
func (g *GeminiFetcher) FetchRates(ctx context.Context) (usdRate, goldRate decimal.Decimal, err error) {
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(ratePrompt), config)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("rate query failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("empty response from model %s", g.model)
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return parseRateAnswer(text.String())
}

// parseRateAnswer extracts the two quotes from a model answer. The answer is
// supposed to be a bare JSON object but models like to wrap it in markdown
// fences or prose, so only the outermost braces are kept.
func parseRateAnswer(answer string) (usdRate, goldRate decimal.Decimal, err error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start < 0 || end <= start {
		return decimal.Zero, decimal.Zero, fmt.Errorf("no JSON object in answer %q", answer)
	}
	var jobj any
	if err := json.Unmarshal([]byte(answer[start:end+1]), &jobj); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid JSON in answer %q: %w", answer, err)
	}

	usdRate, err = rateAt(jobj, "$.usdRate")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	goldRate, err = rateAt(jobj, "$.goldRate")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return usdRate, goldRate, nil
}

// rateAt reads a single positive number at the given jsonpath.
func rateAt(jobj any, path string) (decimal.Decimal, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error parsing rate answer: %q %w", path, err)
	}
	// jsonpath sometimes returns a list of one answer, keep the first.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	val, ok := jval.(float64)
	if !ok || val <= 0 {
		return decimal.Zero, fmt.Errorf("%w: %q is %v", ErrInvalidRate, path, jval)
	}
	return decimal.NewFromFloat(val), nil
}
