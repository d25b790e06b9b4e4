package pipeline

import (
	"strings"
	"text/template"
)

var (
	withContextTmpl = template.Must(template.New("with_context").Parse(`Based on the following document, answer the question COMPLETELY and in DETAIL:

DOCUMENT:
{{.Context}}

QUESTION: {{.Question}}

IMPORTANT: Give a complete, well-structured answer. If it is a summary, include the main points.
If it is an explanation, be clear and thorough.

ANSWER:`))

	questionOnlyTmpl = template.Must(template.New("question_only").Parse(`Answer the following question in a USEFUL, COMPLETE and DETAILED way:

QUESTION: {{.Question}}

IMPORTANT: Give a complete, well-structured answer.

ANSWER:`))
)

// BuildPrompt renders the with-context template when context is non-blank,
// and the question-only template otherwise.
func BuildPrompt(question, context string) (string, error) {
	t := questionOnlyTmpl
	if strings.TrimSpace(context) != "" {
		t = withContextTmpl
	}
	var sb strings.Builder
	if err := t.Execute(&sb, struct{ Question, Context string }{question, context}); err != nil {
		return "", err
	}
	return sb.String(), nil
}
