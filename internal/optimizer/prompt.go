package optimizer

import "fmt"

const systemPrompt = "You are a technical content optimizer that preserves precision while reducing verbosity."

const userPromptTemplate = `Condense the following technical content to approximately %d tokens while preserving ALL:
- Code snippets (keep syntax intact)
- Command-line commands (exact syntax)
- Configuration values (API keys, URLs, paths)
- File names and paths
- Technical terms and acronyms
- Numbers and version strings

Remove:
- Redundant explanations
- Conversational filler
- Unnecessary context

Content to optimize:
%s

Return only the condensed version, maintaining technical accuracy.`

func buildPrompt(content string, maxTokens int) string {
	return fmt.Sprintf(userPromptTemplate, maxTokens, content)
}
