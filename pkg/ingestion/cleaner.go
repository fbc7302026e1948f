// Package ingestion turns raw text files into cleaned, chunked, embedded and
// graph-mined documents and writes them into the store. Documents move
// through the pipeline sequentially; a failing document is logged and
// skipped, never aborting the run.
package ingestion

import (
	"regexp"
	"strings"

	"github.com/soundprediction/graphista/pkg/types"
)

// cleaningRules run in order over document text. They undo the usual text
// extraction artifacts: stray asterisks, bullet points mangled into 'l',
// unicode dashes and apostrophes, control characters, glued camelCase words
// and collapsed whitespace.
var cleaningRules = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`\*+`), ""},
	{regexp.MustCompile(`\nl([A-Z])`), " \n*$1"},
	{regexp.MustCompile(`-+ `), " "},
	{regexp.MustCompile(`_+ `), "_"},
	{regexp.MustCompile("[–—−]"), "-"},
	{regexp.MustCompile("[’ʼ′ʹ´`]"), "'"},
	{regexp.MustCompile("[\uFEFF]"), ""},
	{regexp.MustCompile(`[\x00-\x09]`), " "},
	{regexp.MustCompile(`([0-9a-z])([A-Z])`), "$1 $2"},
	{regexp.MustCompile("([a-zà-ù])([A-Z])"), "$1 $2"},
	{regexp.MustCompile(`\n\s*\n`), "\n"},
	{regexp.MustCompile(`\nn`), " "},
	{regexp.MustCompile(`\n`), " "},
	{regexp.MustCompile(`Pagina (\d+) di (\d+)`), " "},
	{regexp.MustCompile(`[ \t]+`), " "},
}

// Cleaner normalizes document text before chunking.
type Cleaner struct{}

// NewCleaner creates a Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// CleanText applies all normalization rules to one text.
func (c *Cleaner) CleanText(text string) string {
	for _, rule := range cleaningRules {
		text = rule.pattern.ReplaceAllString(text, rule.replacement)
	}
	return strings.TrimSpace(text)
}

// CleanDocument normalizes the text of one document in place.
func (c *Cleaner) CleanDocument(doc *types.Document) *types.Document {
	doc.Text = c.CleanText(doc.Text)
	return doc
}

// CleanDocuments normalizes a batch of documents.
func (c *Cleaner) CleanDocuments(docs []*types.Document) []*types.Document {
	for _, doc := range docs {
		c.CleanDocument(doc)
	}
	return docs
}
