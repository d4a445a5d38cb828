package prompt

import (
	"fmt"
	"strings"
)

// SystemPrompt is sent as the system message of every analysis request.
const SystemPrompt = `You are an expert business data analyst. You respond with one valid JSON object only (no markdown, no commentary). Do not include code fences.`

// Reformulation is one casual-to-professional rewrite shown to the model.
type Reformulation struct {
	Casual       string
	Professional string
}

// ReformulationExamples are embedded in every prompt as few-shot guidance.
var ReformulationExamples = []Reformulation{
	{"who sold most", "Which sales representative generated the highest total revenue?"},
	{"how are we doing this month", "What are the key performance indicators for the current month compared to the previous month?"},
	{"whats selling", "Which products have the highest sales volume and revenue?"},
	{"any problems", "Are there any anomalies, declining trends, or underperforming segments in the data?"},
	{"top customers", "Who are the top customers ranked by total purchase value?"},
}

// ScopeNote describes the dataset selection. An empty selection means all datasets.
func ScopeNote(datasetIDs []string) string {
	if len(datasetIDs) == 0 {
		return "The user is asking about all of their uploaded datasets."
	}
	return fmt.Sprintf("The user selected %d specific dataset(s) for this question: %s.",
		len(datasetIDs), strings.Join(datasetIDs, ", "))
}

// Compose builds the user message. It is deterministic in its inputs.
func Compose(question, summary, scope string) string {
	var b strings.Builder

	b.WriteString(`You are an expert business data analyst. You have two jobs:
1. Reformulate the user's question into a clear, professional business question.
2. Answer it using the data provided, citing concrete numbers from the records.

Reformulation examples:
`)
	for _, ex := range ReformulationExamples {
		fmt.Fprintf(&b, "- %q -> %q\n", ex.Casual, ex.Professional)
	}

	b.WriteString(`
Formatting rules:
- Currency is US dollars, written like $1,234.56.
- Percentages use one decimal place, like 12.5%.
- Large numbers use thousands separators, like 1,234,567.
`)

	if scope != "" {
		fmt.Fprintf(&b, "\nScope: %s\n", scope)
	}

	fmt.Fprintf(&b, "\nAvailable data:\n%s\n", strings.TrimRight(summary, "\n"))
	fmt.Fprintf(&b, "\nUser question: %s\n", question)

	b.WriteString(`
Respond with a single JSON object using exactly these keys:
{
  "reformulated_query": "<professional version of the question>",
  "message": "<direct answer with specific numbers>",
  "insights": ["<insight>", "..."],
  "metrics": {"<metric name>": "<formatted value>"},
  "recommendations": ["<actionable recommendation>", "..."]
}

Do not wrap the JSON in markdown code fences. Do not add any text before or after the JSON object.`)

	return b.String()
}
