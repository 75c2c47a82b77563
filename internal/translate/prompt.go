// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pdiddy/mdtranslate/internal/llm"
)

// plamoMarker opens every structural section of the plamo translation
// format. The model tends to keep generating past its answer with another
// marker, so output is cut at the first one.
const plamoMarker = "<|plamo:op|>"

// genericDelimiter ends the generic prompt; the answer follows it.
const genericDelimiter = "Japanese translation:"

// plamoPromptTmpl is the plamo-2-translate input format: source and target
// languages plus a polite writing style.
var plamoPromptTmpl = template.Must(template.New("plamo").Parse(`<|plamo:op|>dataset
translation
<|plamo:op|>input lang=English
{{.Text}}
<|plamo:op|>output lang=Japanese writingStyle=polite
`))

// genericPromptTmpl is the instruction prompt used for every other model.
var genericPromptTmpl = template.Must(template.New("generic").Parse(`Translate the following English text to Japanese:

{{.Text}}

Japanese translation:`))

// strategy is the per-family way of talking to a model.
type strategy struct {
	tmpl      *template.Template
	maxTokens int
	stop      []string
	extract   func(raw, prompt string) string
}

var strategies = map[llm.Family]strategy{
	llm.FamilyPlamoTranslate: {
		tmpl:      plamoPromptTmpl,
		maxTokens: 1024,
		stop:      []string{plamoMarker},
		extract:   extractPlamo,
	},
	llm.FamilyPlamo: {
		tmpl:      genericPromptTmpl,
		maxTokens: 200,
		extract:   extractGeneric,
	},
	llm.FamilyGeneric: {
		tmpl:      genericPromptTmpl,
		maxTokens: 200,
		extract:   extractGeneric,
	},
}

// strategyFor returns the strategy for f, defaulting to the generic one.
func strategyFor(f llm.Family) strategy {
	if s, ok := strategies[f]; ok {
		return s
	}
	return strategies[llm.FamilyGeneric]
}

// render executes the strategy's prompt template for text.
func (s strategy) render(text string) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, struct{ Text string }{Text: text}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractPlamo removes an echoed prompt and anything from the first
// structural marker on.
func extractPlamo(raw, prompt string) string {
	result := raw
	if strings.Contains(result, prompt) {
		result = strings.ReplaceAll(result, prompt, "")
	}
	result = strings.TrimSpace(result)
	if i := strings.Index(result, plamoMarker); i >= 0 {
		result = strings.TrimSpace(result[:i])
	}
	return result
}

// extractGeneric takes the text after the last delimiter, up to the first
// blank line. Without a delimiter the whole output is used.
func extractGeneric(raw, _ string) string {
	i := strings.LastIndex(raw, genericDelimiter)
	if i < 0 {
		return strings.TrimSpace(raw)
	}

	rest := strings.TrimSpace(raw[i+len(genericDelimiter):])
	var lines []string
	for _, line := range strings.Split(rest, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
