package provider

import (
	"fmt"
	"strings"

	"github.com/rahul/max/internal/plan"
	"github.com/tmc/langchaingo/llms"
)

// systemPromptTemplate is tuned for small local models that need very
// strict formatting guidance to produce reliable JSON.
const systemPromptTemplate = `You are Max, a desktop task planner.

Your ONLY job is to convert the user's command into a single JSON object.

RULES:
1. Your ENTIRE response must be exactly ONE valid JSON object.
2. No text, markdown fences, or commentary before or after the JSON.
3. Never generate code. Never invent action types.
4. Parameter values must be strings, numbers, or booleans only.
5. If the command is unclear, respond with a "clarify" plan.

Allowed action types:
%s

Output format:
{
  "task_type": "single_step" | "multi_step" | "clarify",
  "requires_confirmation": false,
  "actions": [
    {"type": "action_type", "parameters": {}}
  ],
  "question": "only for clarify plans"
}

Use "single_step" for one action, "multi_step" for two or more, and
"clarify" (with a "question" and an empty actions list) to ask the user
something. Set requires_confirmation to true for deletions, software
installation, and power-state changes.`

func buildMessages(catalog *plan.Catalog, cmd plan.Command) []llms.MessageContent {
	var types strings.Builder
	for _, t := range catalog.Types() {
		fmt.Fprintf(&types, "- %s\n", t)
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(fmt.Sprintf(systemPromptTemplate, types.String()))},
		},
	}

	// Context arrives most-recent-first; replay it chronologically.
	for i := len(cmd.Context) - 1; i >= 0; i-- {
		ex := cmd.Context[i]
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(ex.UserText)},
		})
		if ex.PlanJSON != "" {
			messages = append(messages, llms.MessageContent{
				Role:  llms.ChatMessageTypeAI,
				Parts: []llms.ContentPart{llms.TextPart(ex.PlanJSON)},
			})
		}
	}

	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(cmd.Text)},
	})
	return messages
}
