package cost

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rotisserie/eris"
)

// encodingName is the tokenizer used for pre-call estimates. Claude does not
// publish a local tokenizer; o200k_base tracks actual usage within a few
// percent, and the safety buffer absorbs the variance.
const encodingName = "o200k_base"

// bufferMultiplier pads estimates by 10% to keep reservations conservative.
const bufferMultiplier = 1.10

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

func encoding() (*tiktoken.Tiktoken, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding(encodingName)
	})
	return enc, encErr
}

// Estimator counts tokens and prices calls before they are made.
type Estimator struct {
	calc  *Calculator
	model string
}

// NewEstimator creates an Estimator for the given model using calc's rates.
func NewEstimator(calc *Calculator, model string) *Estimator {
	return &Estimator{calc: calc, model: model}
}

// CountTokens counts tokens in text.
func (e *Estimator) CountTokens(text string) (int, error) {
	tkm, err := encoding()
	if err != nil {
		return 0, eris.Wrap(err, "cost: load tokenizer")
	}
	return len(tkm.Encode(text, nil, nil)), nil
}

// EstimateCall prices a call from its input text and an expected output token
// count, with the safety buffer applied.
func (e *Estimator) EstimateCall(inputText string, estimatedOutputTokens int) (float64, error) {
	inputTokens, err := e.CountTokens(inputText)
	if err != nil {
		return 0, err
	}
	base := e.calc.Claude(e.model, inputTokens, estimatedOutputTokens)
	return base * bufferMultiplier, nil
}

// ActualCost prices a completed call from its reported token usage.
func (e *Estimator) ActualCost(inputTokens, outputTokens int64) float64 {
	return e.calc.Claude(e.model, int(inputTokens), int(outputTokens))
}
