package mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maraichr/ontograph/pkg/models"
)

const defaultMaxTokens = 4000

// ResponseBuilder constructs token-budgeted Markdown responses for MCP tools.
type ResponseBuilder struct {
	buf           strings.Builder
	tokenEstimate int
	maxTokens     int
	truncated     bool
}

// NewResponseBuilder creates a builder with the given token budget.
// If maxTokens <= 0, defaultMaxTokens is used.
func NewResponseBuilder(maxTokens int) *ResponseBuilder {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &ResponseBuilder{maxTokens: maxTokens}
}

// AddHeader writes a header line. Headers are never dropped.
func (rb *ResponseBuilder) AddHeader(text string) {
	line := text + "\n\n"
	rb.buf.WriteString(line)
	rb.tokenEstimate += len(line) / 4
}

// AddLine writes a single line, returning false if the budget is exceeded.
func (rb *ResponseBuilder) AddLine(text string) bool {
	return rb.add(text + "\n")
}

// AddSection writes a section with a heading.
func (rb *ResponseBuilder) AddSection(heading, content string) bool {
	return rb.add(fmt.Sprintf("### %s\n%s\n\n", heading, content))
}

// AddRawText writes text as-is, returning false if the budget is exceeded.
func (rb *ResponseBuilder) AddRawText(text string) bool {
	return rb.add(text)
}

// AddCodeBlock writes a fenced block. A block that does not fit is cut at a
// line boundary and the response is marked truncated.
func (rb *ResponseBuilder) AddCodeBlock(lang, body string) bool {
	open := "```" + lang + "\n"
	const closing = "```\n"
	budget := (rb.maxTokens-rb.tokenEstimate)*4 - len(open) - len(closing)
	if budget <= 0 {
		rb.truncated = true
		return false
	}
	body = strings.TrimRight(body, "\n") + "\n"
	complete := true
	if len(body) > budget {
		cut := strings.LastIndexByte(body[:budget], '\n')
		if cut <= 0 {
			rb.truncated = true
			return false
		}
		body = body[:cut+1]
		complete = false
	}
	rb.buf.WriteString(open + body + closing)
	rb.tokenEstimate += (len(open) + len(body) + len(closing)) / 4
	if !complete {
		rb.truncated = true
	}
	return complete
}

func (rb *ResponseBuilder) add(text string) bool {
	cost := len(text) / 4
	if rb.tokenEstimate+cost > rb.maxTokens {
		rb.truncated = true
		return false
	}
	rb.buf.WriteString(text)
	rb.tokenEstimate += cost
	return true
}

// Truncated reports whether anything was dropped.
func (rb *ResponseBuilder) Truncated() bool { return rb.truncated }

// Finalize appends a truncation notice when needed and returns the text.
func (rb *ResponseBuilder) Finalize(totalCount, returnedCount int) string {
	if rb.truncated || returnedCount < totalCount {
		rb.buf.WriteString(fmt.Sprintf(
			"\n---\n*Showing %d of %d (truncated to ~%d tokens). Increase `max_response_tokens` for more.*\n",
			returnedCount, totalCount, rb.maxTokens))
	}
	return rb.buf.String()
}

// FormatOntologyLine renders one registry entry as a list item.
func FormatOntologyLine(o *models.OntologySummary) string {
	title := o.Title
	if title == "" {
		title = o.ID
	}
	line := fmt.Sprintf("- **%s** (`%s`) <%s>, %d triples", title, o.ID, o.IRI, o.TripleCount)
	if o.Version != "" {
		line += ", v" + o.Version
	}
	return line
}

// FormatOntologyCard renders the descriptive fields of an ontology.
func FormatOntologyCard(o *models.OntologySummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- **ID:** `%s`\n", o.ID)
	fmt.Fprintf(&sb, "- **IRI:** <%s>\n", o.IRI)
	if o.Title != "" {
		fmt.Fprintf(&sb, "- **Title:** %s\n", o.Title)
	}
	if o.Version != "" {
		fmt.Fprintf(&sb, "- **Version:** %s\n", o.Version)
	}
	fmt.Fprintf(&sb, "- **Triples:** %d\n", o.TripleCount)
	if o.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", o.Description)
	}
	return sb.String()
}

// FormatResultSummary renders the metadata of a processed document.
func FormatResultSummary(res *models.ProcessResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- **Status:** %s\n", res.Status)
	if res.FailureStage != "" {
		fmt.Fprintf(&sb, "- **Failure:** %s (%s)\n", res.FailureStage, res.FailureReason)
	}
	fmt.Fprintf(&sb, "- **Triples:** %d\n", res.TripleCount)
	if res.Ontology != nil {
		fmt.Fprintf(&sb, "- **Ontology:** `%s` <%s>\n", res.Ontology.ID, res.Ontology.IRI)
	}
	fmt.Fprintf(&sb, "- **Chunks:** %d processed, %d remaining\n", res.ChunksProcessed, res.ChunksRemaining)
	fmt.Fprintf(&sb, "- **Steps:** %d in %d ms\n", res.Steps, res.DurationMS)
	if len(res.NodeVisits) > 0 {
		stages := make([]string, 0, len(res.NodeVisits))
		for s := range res.NodeVisits {
			stages = append(stages, s)
		}
		sort.Strings(stages)
		visits := make([]string, len(stages))
		for i, s := range stages {
			visits[i] = fmt.Sprintf("%s=%d", s, res.NodeVisits[s])
		}
		fmt.Fprintf(&sb, "- **Visits:** %s\n", strings.Join(visits, ", "))
	}
	return sb.String()
}
