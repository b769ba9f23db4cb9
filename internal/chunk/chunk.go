// Package chunk splits markdown text into chunks sized for one generation
// call.
package chunk

import (
	"fmt"
	"strings"
)

// charsPerToken is the approximate average characters per token for GPT tokenizers.
const charsPerToken = 4

// Config bounds chunk sizes in estimated tokens.
type Config struct {
	TargetTokens int
	MaxTokens    int
	MinTokens    int
}

func DefaultConfig() Config {
	return Config{
		TargetTokens: 800,
		MaxTokens:    1200,
		MinTokens:    150,
	}
}

func (c Config) Validate() error {
	if c.MinTokens <= 0 {
		return fmt.Errorf("MinTokens must be positive, got %d", c.MinTokens)
	}
	if c.MinTokens >= c.TargetTokens {
		return fmt.Errorf("MinTokens (%d) must be less than TargetTokens (%d)", c.MinTokens, c.TargetTokens)
	}
	if c.TargetTokens > c.MaxTokens {
		return fmt.Errorf("TargetTokens (%d) must not exceed MaxTokens (%d)", c.TargetTokens, c.MaxTokens)
	}
	return nil
}

// Splitter packs markdown sections into chunks. Sections over the maximum are
// split by paragraph, paragraphs by sentence, and unbroken runs of text at
// rune boundaries.
type Splitter struct {
	cfg Config
}

func New(cfg Config) (*Splitter, error) {
	if cfg.TargetTokens == 0 {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Splitter{cfg: cfg}, nil
}

func NewDefault() *Splitter {
	s, _ := New(DefaultConfig())
	return s
}

// Split returns the chunks of text in document order. Blank input yields no
// chunks.
func (s *Splitter) Split(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var pieces []string
	for _, sec := range sections(text) {
		if tokens(sec) > s.cfg.MaxTokens {
			pieces = append(pieces, s.splitSection(sec)...)
			continue
		}
		pieces = append(pieces, sec)
	}
	return s.mergeSmall(s.pack(pieces, "\n\n"))
}

// pack greedily joins consecutive pieces up to the target size.
func (s *Splitter) pack(pieces []string, sep string) []string {
	var out []string
	var cur strings.Builder
	for _, p := range pieces {
		if cur.Len() > 0 && tokens(cur.String())+tokens(p) > s.cfg.TargetTokens {
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString(sep)
		}
		cur.WriteString(p)
	}
	if strings.TrimSpace(cur.String()) != "" {
		out = append(out, strings.TrimSpace(cur.String()))
	}
	return out
}

func (s *Splitter) splitSection(sec string) []string {
	var pieces []string
	for _, para := range paragraphs(sec) {
		if tokens(para) <= s.cfg.MaxTokens {
			pieces = append(pieces, para)
			continue
		}
		sentences := splitSentences(para)
		if len(sentences) <= 1 {
			pieces = append(pieces, s.hardSplit(para)...)
			continue
		}
		for _, sent := range sentences {
			if tokens(sent) > s.cfg.MaxTokens {
				pieces = append(pieces, s.hardSplit(sent)...)
			} else {
				pieces = append(pieces, sent)
			}
		}
	}
	return pieces
}

func (s *Splitter) hardSplit(content string) []string {
	maxChars := s.cfg.MaxTokens * charsPerToken
	runes := []rune(content)
	var out []string
	for i := 0; i < len(runes); i += maxChars {
		end := min(i+maxChars, len(runes))
		out = append(out, string(runes[i:end]))
	}
	return out
}

// mergeSmall folds chunks under the minimum into their successor while the
// result stays within the maximum.
func (s *Splitter) mergeSmall(chunks []string) []string {
	if len(chunks) <= 1 {
		return chunks
	}
	var out []string
	for i := 0; i < len(chunks); i++ {
		c := chunks[i]
		if tokens(c) < s.cfg.MinTokens && i < len(chunks)-1 {
			combined := c + "\n\n" + chunks[i+1]
			if tokens(combined) <= s.cfg.MaxTokens {
				chunks[i+1] = combined
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// sections splits on markdown headings outside code fences. Each section
// keeps its heading line.
func sections(text string) []string {
	var out []string
	var cur []string
	inCode := false
	flush := func() {
		if s := strings.TrimSpace(strings.Join(cur, "\n")); s != "" {
			out = append(out, s)
		}
		cur = cur[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		if isCodeFence(line) {
			inCode = !inCode
		}
		if !inCode && isHeading(line) {
			flush()
		}
		cur = append(cur, line)
	}
	flush()
	return out
}

// paragraphs splits on blank lines outside code fences.
func paragraphs(content string) []string {
	var out []string
	var cur []string
	inCode := false
	flush := func() {
		if s := strings.TrimSpace(strings.Join(cur, "\n")); s != "" {
			out = append(out, s)
		}
		cur = cur[:0]
	}
	for _, line := range strings.Split(content, "\n") {
		if isCodeFence(line) {
			inCode = !inCode
		}
		if !inCode && strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}

func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		cur.WriteRune(r)
		if r != '.' && r != '?' && r != '!' {
			continue
		}
		if i == len(runes)-1 || runes[i+1] == ' ' || runes[i+1] == '\n' {
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func tokens(s string) int {
	return (len(s) + charsPerToken - 1) / charsPerToken
}

func isCodeFence(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~")
}

func isHeading(line string) bool {
	t := strings.TrimLeft(line, " ")
	n := 0
	for n < len(t) && t[n] == '#' {
		n++
	}
	return n >= 1 && n <= 6 && (n == len(t) || t[n] == ' ')
}
