package classify

import "strings"

// DefaultSystemPrompt frames the model as a formatting assistant.
const DefaultSystemPrompt = "You are a document formatting assistant. Classify each paragraph as 'heading' or 'body' based on its content and context."

const userPreamble = "Analyze the following document content and classify each paragraph as either 'heading' or 'body':\n\n"

// BuildUserPrompt lists every block as a "Text: ..." entry in order.
func BuildUserPrompt(blocks []ContentBlock) string {
	var sb strings.Builder
	sb.WriteString(userPreamble)
	for _, b := range blocks {
		sb.WriteString("\nText: ")
		sb.WriteString(b.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
