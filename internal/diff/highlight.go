package diff

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// highlightStyle matches the palette used for origin colors in the CLI.
const highlightStyle = "dracula"

// Span is a run of text sharing one foreground color.
type Span struct {
	Text  string
	Color string // hex color such as "#ff79c6", empty for the default
}

// SpanLine is one source line split into colored spans.
type SpanLine []Span

// Text returns the line without color information.
func (l SpanLine) Text() string {
	var b strings.Builder
	for _, s := range l {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Highlight tokenises lines using the lexer chosen for filename and returns
// exactly one SpanLine per input line. Unknown languages pass through uncolored.
func Highlight(filename string, lines []string) []SpanLine {
	lexer := lexerFor(filename)
	if lexer == nil {
		return uncolored(lines)
	}

	it, err := lexer.Tokenise(nil, strings.Join(lines, "\n"))
	if err != nil {
		return uncolored(lines)
	}

	style := styles.Get(highlightStyle)
	if style == nil {
		style = styles.Fallback
	}

	out := make([]SpanLine, 0, len(lines))
	var cur SpanLine
	for _, tok := range it.Tokens() {
		color := colorOf(style, tok.Type)
		for i, part := range strings.Split(tok.Value, "\n") {
			if i > 0 {
				out = append(out, cur)
				cur = nil
			}
			if part != "" {
				cur = append(cur, Span{Text: part, Color: color})
			}
		}
	}
	out = append(out, cur)

	// Lexers may add or swallow a trailing newline.
	for len(out) < len(lines) {
		out = append(out, nil)
	}
	return out[:len(lines)]
}

func uncolored(lines []string) []SpanLine {
	out := make([]SpanLine, len(lines))
	for i, l := range lines {
		out[i] = SpanLine{{Text: l}}
	}
	return out
}

func lexerFor(filename string) chroma.Lexer {
	lexer := lexers.Match(filename)
	if lexer == nil {
		if ext := filepath.Ext(filename); ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer == nil {
		return nil
	}
	return chroma.Coalesce(lexer)
}

func colorOf(style *chroma.Style, tt chroma.TokenType) string {
	if entry := style.Get(tt); entry.Colour.IsSet() {
		return entry.Colour.String()
	}
	return ""
}
