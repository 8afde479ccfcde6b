package llm

import (
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Prompt wording is part of the service contract - changing it changes the
// summaries users see.
const (
	systemPrompt = "You're a news reporter AI."

	userPromptTemplate = "Given the news body text: %s, which may include some irrelevant information, " +
		"identify the key arguments and the article's conclusion. From these important elements, " +
		"construct a succinct summary that encapsulates its news value, disregarding any unnecessary details."
)

// BuildMessages builds the two-message conversation sent to the model:
// a fixed reporter persona followed by the article text wrapped in the
// summarization instruction.
func BuildMessages(text string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: fmt.Sprintf(userPromptTemplate, text),
		},
	}
}
