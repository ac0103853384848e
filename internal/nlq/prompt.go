package nlq

import (
	"fmt"
	"strings"

	"github.com/tabulario/datalens/internal/dispatch"
)

// BuildPrompt renders the system prompt from the operation catalog.
// The model sees tool names, argument schemas and descriptions, never
// raw data.
func BuildPrompt(catalog []dispatch.Operation) string {
	var b strings.Builder

	b.WriteString("You are a helpful assistant that helps users analyze CSV data using specialized tools.\n\n")
	b.WriteString("Available tools:\n")
	for i, op := range catalog {
		b.WriteString(fmt.Sprintf("%d. %s(%s) - %s\n", i+1, op.Name, argList(op), op.Description))
	}

	b.WriteString(`
When the user asks about data analysis, respond with a JSON object:
{
    "tool": "tool_name",
    "parameters": {"param1": "value1"},
    "explanation": "Brief explanation of why you chose this tool"
}

If the request is unclear or does not match any tool, respond with:
{
    "tool": null,
    "parameters": {},
    "explanation": "Your clarification request"
}

Examples:
- "Show me statistics for sales.csv" -> {"tool": "get_stats", "parameters": {"path": "sales.csv"}, "explanation": "Getting comprehensive statistics for the dataset"}
- "Create a bar chart of sales by month from sales.csv" -> {"tool": "generate_chart", "parameters": {"path": "sales.csv", "kind": "bar", "x": "month", "y": "sales"}, "explanation": "Rendering a bar chart"}
- "Which rows of people.csv have age over 30?" -> {"tool": "filter_table", "parameters": {"path": "people.csv", "predicates": [{"column": "age", "operator": "gt", "value": 30}]}, "explanation": "Filtering rows by age"}

Respond with valid JSON only.`)

	return b.String()
}

func argList(op dispatch.Operation) string {
	parts := make([]string, 0, len(op.Args))
	for _, arg := range op.Args {
		name := arg.Name
		if !arg.Required {
			name += "?"
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, ", ")
}
