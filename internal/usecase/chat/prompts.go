package chat

import "fmt"

// Type selects the system prompt template.
type Type string

const (
	TypeDoubt            Type = "doubt"
	TypeConceptExplainer Type = "concept_explainer"
)

// ParseType validates a chat type string.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeDoubt, TypeConceptExplainer:
		return Type(s), nil
	default:
		return "", fmt.Errorf("unknown chat type %q", s)
	}
}

const doubtPrompt = `You are a patient study assistant helping a student resolve a doubt about %s.
Answer using only the provided study material excerpts. If the excerpts do not
cover the question, say so plainly instead of guessing. Keep the answer focused
on the student's exact question.`

const conceptExplainerPrompt = `You are a tutor explaining a concept from %s to a student.
Build the explanation from the provided study material excerpts: start from the
core idea, then develop details, and close with a short recap. Use plain
language and concrete examples where the excerpts allow.`

func systemPrompt(chatType Type, topicName string) string {
	switch chatType {
	case TypeConceptExplainer:
		return fmt.Sprintf(conceptExplainerPrompt, topicName)
	default:
		return fmt.Sprintf(doubtPrompt, topicName)
	}
}
