// Package extract turns budget-allocated website text into structured
// practice records via Claude, with every call gated by the cost ledger.
package extract

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vet-enrich/internal/cost"
	"github.com/sells-group/vet-enrich/internal/model"
	"github.com/sells-group/vet-enrich/pkg/anthropic"
)

// Extractor performs structured extraction for one target at a time. Safe
// for concurrent use; the ledger serializes budget decisions internally.
type Extractor struct {
	client anthropic.Client
	ledger *cost.Ledger
	est    *cost.Estimator
	model  string
	system []anthropic.SystemBlock
}

// NewExtractor creates an Extractor using the given model. The system
// prompt carries a cache breakpoint since it is identical for every target.
func NewExtractor(client anthropic.Client, ledger *cost.Ledger, est *cost.Estimator, modelID string) *Extractor {
	return &Extractor{
		client: client,
		ledger: ledger,
		est:    est,
		model:  modelID,
		system: anthropic.BuildCachedSystemBlocks(systemPrompt),
	}
}

// Extract runs one extraction call for a target. The sequence is estimate,
// reserve, call, commit actual cost, parse, sanitize. A reservation failure
// surfaces as *cost.BudgetExceededError and means no call was made. An API
// failure releases the hold; a schema failure commits, because the tokens
// were consumed.
func (e *Extractor) Extract(ctx context.Context, practiceName, websiteText string) (*model.ExtractionRecord, error) {
	if websiteText == "" {
		return nil, eris.New("extract: empty website text")
	}

	log := zap.L().With(zap.String("practice", practiceName))

	userMessage := buildUserMessage(practiceName, websiteText)
	estimate, err := e.est.EstimateCall(systemPrompt+"\n\n"+userMessage, estimatedOutputTokens)
	if err != nil {
		return nil, eris.Wrap(err, "extract: estimate call")
	}

	res, err := e.ledger.Reserve(estimate)
	if err != nil {
		return nil, err
	}

	temp := extractionTemperature
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   maxOutputTokens,
		System:      e.system,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: userMessage},
		},
	})
	if err != nil {
		e.ledger.Release(res)
		return nil, eris.Wrap(err, "extract: create message")
	}

	actual := e.est.ActualCost(resp.Usage.InputTokens, resp.Usage.OutputTokens)
	e.ledger.Commit(res, actual, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	log.Debug("extract: call complete",
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
		zap.Float64("estimated_cost", estimate),
		zap.Float64("actual_cost", actual),
	)

	rec, err := parseExtraction(resp.Text())
	if err != nil {
		return nil, err
	}

	sanitize(rec, websiteText)
	return rec, nil
}
