package prompt

import (
	"fmt"
	"strings"
)

// Both slots must appear in a template at least once.
const (
	contextSlot  = "{context}"
	questionSlot = "{question}"
)

// DefaultText grounds the assistant in the retrieved transcript excerpts.
const DefaultText = `You are a helpful assistant.
Answer only from the transcript provided below.

{context}

Question: {question}`

// Template is a prompt with two named slots, {context} and {question}.
type Template struct {
	text string
}

// New validates that both slots are present and returns the template.
func New(text string) (*Template, error) {
	for _, slot := range []string{contextSlot, questionSlot} {
		if !strings.Contains(text, slot) {
			return nil, fmt.Errorf("prompt template missing %s slot", slot)
		}
	}
	return &Template{text: text}, nil
}

// Default returns the built-in template.
func Default() *Template {
	t, err := New(DefaultText)
	if err != nil {
		panic(err)
	}
	return t
}

// Render substitutes the retrieved context and the user question into the
// template.
func (t *Template) Render(context, question string) string {
	r := strings.NewReplacer(contextSlot, context, questionSlot, question)
	return r.Replace(t.text)
}
