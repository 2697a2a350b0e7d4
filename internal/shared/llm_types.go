package shared

import (
	"time"
)

// Agent names used when recording LLM executions.
const (
	AgentShoppingList  = "ShoppingList"
	AgentRecipeSearch  = "RecipeSearch"
	AgentRecipeDetails = "RecipeDetails"
	AgentClipper       = "Clipper"
)

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// AgentMeta holds operational metadata for one LLM-backed step.
// Fallback is set when the step's output was produced locally because
// the model call failed or returned nothing usable.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
	Fallback  bool
}

// Empty reports whether no tokens were recorded.
func (u TokenUsage) Empty() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0
}
