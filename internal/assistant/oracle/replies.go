package oracle

import (
	"strings"

	"github.com/tabletalk/server/internal/assistant/model"
)

// Canned replies for turns that short-circuit the analysis pipeline. Lookup
// is a deterministic sub-pattern match on the utterance, so the same input
// always produces the same reply.

type cannedReply struct {
	patterns []string
	reply    string
}

var greetingReplies = []cannedReply{
	{[]string{"good morning", "morning"},
		"Good morning! I'm ready to help you analyze your data. What would you like to know?"},
	{[]string{"good evening", "evening"},
		"Good evening! I'm here to help with your data analysis. What questions do you have?"},
	{[]string{"good afternoon", "afternoon"},
		"Good afternoon! Ready to dive into your data. What would you like to explore?"},
}

const defaultGreetingReply = "Hello! I'm your data analysis assistant. I can help you explore and understand your uploaded data. Try asking questions like 'What are the top 5 products by sales?' or 'Show me a chart of monthly trends'."

var chitchatReplies = []cannedReply{
	{[]string{"how are you"},
		"I'm doing great, thank you for asking! I'm ready to help you analyze your data. What would you like to know about your dataset?"},
	{[]string{"your name", "who are you"},
		"I'm your data analysis assistant! Ask me questions about your dataset and I'll provide insights, calculations, and visualizations."},
	{[]string{"what can you do", "help"},
		"I can help you analyze your uploaded data:\n\n- Answer questions about your data (e.g., 'What is the total sales?')\n- Calculate statistics (e.g., 'Show average revenue by region')\n- Find patterns (e.g., 'What are the top 5 products?')\n- Create visualizations (e.g., 'Create a bar chart of sales by category')\n\nJust ask me anything about your data!"},
	{[]string{"thank", "thanks"},
		"You're welcome! Let me know if you have any more questions about your data."},
	{[]string{"joke"},
		"I'm better at analyzing data than telling jokes! But here's a data one: why did the analyst break up with the pie chart? They found someone with better distribution. Now, what would you like to know about your data?"},
}

const defaultChitchatReply = "I'm a data analysis assistant focused on your uploaded data. Try asking me questions like 'What is the total revenue?' or 'Show me top 10 customers by sales'. What would you like to explore?"

const unclearReply = "I'm not sure if you're asking about your data or just chatting. I can help you explore your uploaded dataset - could you ask a specific question about your data?"

// FriendlyResponse returns the canned reply for a non-data turn.
func FriendlyResponse(category model.QueryCategory, utterance string) string {
	q := strings.ToLower(strings.TrimSpace(utterance))

	switch category {
	case model.CategoryGreeting:
		if r, ok := lookupReply(greetingReplies, q); ok {
			return r
		}
		return defaultGreetingReply
	case model.CategoryChitchat:
		if r, ok := lookupReply(chitchatReplies, q); ok {
			return r
		}
		return defaultChitchatReply
	default:
		return unclearReply
	}
}

func lookupReply(table []cannedReply, q string) (string, bool) {
	for _, entry := range table {
		for _, p := range entry.patterns {
			if strings.Contains(q, p) {
				return entry.reply, true
			}
		}
	}
	return "", false
}
