package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jithinsajeev21/Smartspend/internal/core"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

type Insight struct {
	Summary   string    `json:"summary"`
	Tips      []string  `json:"tips"`
	Sentiment Sentiment `json:"sentiment"`
}

// FallbackInsight is returned whenever the model call fails. Insight
// generation never surfaces an error to its caller.
func FallbackInsight() Insight {
	return Insight{
		Summary:   "Spending insights are unavailable right now.",
		Tips:      []string{"Try again in a few minutes.", "Keep recording your expenses so the next analysis has fresh data."},
		Sentiment: SentimentNeutral,
	}
}

const insightPrompt = `You are a personal grocery spending advisor. Below is a ledger of recorded expenses. Analyze it and respond with JSON only, matching this schema:

{
  "summary": "two or three sentences about spending patterns",
  "tips": ["actionable saving tip", "another tip"],
  "sentiment": "positive, neutral or negative"
}

Sentiment reflects the overall health of the spending habits. Keep tips concrete and tied to the ledger.

Ledger:
`

// GenerateInsight renders the expense list as a text ledger and asks the
// model for a spending analysis. Any failure yields the neutral fallback.
func (c *Client) GenerateInsight(ctx context.Context, expenses []core.Expense) Insight {
	text, err := c.generate(ctx, []part{{Text: insightPrompt + RenderLedger(expenses)}})
	if err != nil {
		slog.WarnContext(ctx, "insight generation failed, using fallback", "error", err)
		return FallbackInsight()
	}

	var insight Insight
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &insight); err != nil {
		slog.WarnContext(ctx, "insight payload malformed, using fallback", "error", err)
		return FallbackInsight()
	}
	if strings.TrimSpace(insight.Summary) == "" {
		slog.WarnContext(ctx, "insight payload has no summary, using fallback")
		return FallbackInsight()
	}
	switch Sentiment(strings.ToLower(string(insight.Sentiment))) {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		insight.Sentiment = Sentiment(strings.ToLower(string(insight.Sentiment)))
	default:
		insight.Sentiment = SentimentNeutral
	}
	return insight
}

// RenderLedger formats expenses as one line per purchase for the model
// prompt.
func RenderLedger(expenses []core.Expense) string {
	if len(expenses) == 0 {
		return "(no expenses recorded)"
	}
	var b strings.Builder
	for _, e := range expenses {
		fmt.Fprintf(&b, "%s | %s | %s | %s | %s | paid by %s for %s\n",
			e.Date, e.Description, e.Amount.Format(), e.Category, e.Store, e.Payer, e.Owner)
	}
	return b.String()
}
