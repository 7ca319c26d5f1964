package query

import "fmt"

// systemPrompt instructs the model to answer strictly from the
// retrieved transcript context and always in the configured language,
// whatever language the transcript or question is in.
func systemPrompt(language, fallbackAnswer string) string {
	return fmt.Sprintf(`You are a helpful assistant that answers questions based on YouTube video transcripts.

IMPORTANT INSTRUCTIONS:
- Answer ONLY using information from the provided context
- The context may be in Hindi, English, or any other language
- ALWAYS respond in %[1]s, regardless of the question language or context language
- If the context is in another language, translate the information to %[1]s in your response
- If the context doesn't contain enough information, say: %[2]q
- Be concise, clear, and specific
- Use direct quotes when relevant (translate them to %[1]s if needed)
- Maintain a conversational but informative tone
- Never respond in any language other than %[1]s`, language, fallbackAnswer)
}

func userPrompt(contextText, question, language string) string {
	return fmt.Sprintf(`Context from video transcript (may be in any language):
%s

Question: %s

Remember: Your response MUST be in %s only.

Answer:`, contextText, question, language)
}
