package llm

import (
	_ "embed"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsRaw []byte

type promptSet struct {
	ExtractionSystem string `yaml:"extraction_system"`
	ExtractionUser   string `yaml:"extraction_user"`
	Relevance        string `yaml:"relevance"`
}

var (
	prompts        promptSet
	extractionTmpl *template.Template
	relevanceTmpl  *template.Template
)

func init() {
	if err := yaml.Unmarshal(promptsRaw, &prompts); err != nil {
		panic("llm: invalid prompts.yaml: " + err.Error())
	}
	extractionTmpl = template.Must(template.New("extraction").Parse(prompts.ExtractionUser))
	relevanceTmpl = template.Must(template.New("relevance").Parse(prompts.Relevance))
}

// ExtractionSystem returns the fixed system instruction for the
// entity-extraction pass.
func ExtractionSystem() string {
	return prompts.ExtractionSystem
}

// RenderExtraction renders the extraction user prompt around the query
// context block.
func RenderExtraction(context string) (string, error) {
	var b strings.Builder
	if err := extractionTmpl.Execute(&b, struct{ Context string }{Context: context}); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderRelevance renders the relevance-filter prompt around the original
// query text and the JSON task digest.
func RenderRelevance(query, tasks string) (string, error) {
	var b strings.Builder
	err := relevanceTmpl.Execute(&b, struct{ Query, Tasks string }{Query: query, Tasks: tasks})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
