// Package pumlmd replaces PlantUML code blocks in Markdown documentation with rendered
// diagram markup.
//
// A block is a fenced code block whose info string starts with plantuml or puml:
//
//	```plantuml
//	@startuml
//	A -> B
//	@enduml
//	```
//
// Everything outside such blocks is left byte for byte as it was.
package pumlmd

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	goldmarkHtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"oss.terrastruct.com/xdefer"
)

var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHtml.WithUnsafe(),
		goldmarkHtml.WithXHTML(),
	),
)

// Renderer is satisfied by *pumlrender.Renderer.
type Renderer interface {
	Render(ctx context.Context, src string) (string, error)
}

// Block is a PlantUML code block located in a Markdown source.
type Block struct {
	// Start and End are the byte offsets of the block including both fences.
	Start int
	End   int
	// Line is the 1-indexed line of the opening fence.
	Line int
	// Source is the diagram text, each line terminated by a newline.
	Source string
}

// Languages are the info strings that mark a PlantUML block.
var Languages = []string{"plantuml", "puml"}

// Find returns every PlantUML block in md in document order.
func Find(md []byte) (_ []Block, err error) {
	defer xdefer.Errorf(&err, "failed to find plantuml blocks")

	doc := markdown.Parser().Parse(text.NewReader(md))

	var blocks []Block
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok || !isPlantUML(fcb.Language(md)) {
			return ast.WalkContinue, nil
		}
		b, err := locate(md, fcb)
		if err != nil {
			return ast.WalkStop, err
		}
		blocks = append(blocks, b)
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// Rewrite replaces every PlantUML block in md with r's rendering of it.
func Rewrite(ctx context.Context, r Renderer, md []byte) (_ []byte, err error) {
	defer xdefer.Errorf(&err, "failed to rewrite markdown")

	blocks, err := Find(md)
	if err != nil {
		return nil, err
	}

	out := &bytes.Buffer{}
	out.Grow(len(md))
	prev := 0
	for _, b := range blocks {
		frag, err := r.Render(ctx, b.Source)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", b.Line, err)
		}
		out.Write(md[prev:b.Start])
		out.WriteString(frag)
		prev = b.End
	}
	out.Write(md[prev:])
	return out.Bytes(), nil
}

// ToHTML converts md to HTML. Raw HTML, such as rendered diagram markup, is kept.
func ToHTML(md []byte) ([]byte, error) {
	var b bytes.Buffer
	if err := markdown.Convert(md, &b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func isPlantUML(lang []byte) bool {
	for _, l := range Languages {
		if string(lang) == l {
			return true
		}
	}
	return false
}

// locate finds the byte range of fcb including its fences. goldmark runs an unclosed
// fence to the end of its container without reporting it, so that is diagnosed here.
func locate(md []byte, fcb *ast.FencedCodeBlock) (Block, error) {
	start := lineStart(md, fcb.Info.Segment.Start)
	line := bytes.Count(md[:start], []byte("\n")) + 1

	contentStart := lineEnd(md, fcb.Info.Segment.Stop)
	var src bytes.Buffer
	lines := fcb.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		src.Write(seg.Value(md))
		contentStart = seg.Stop
	}

	closeStart := contentStart
	closeEnd := lineEnd(md, closeStart)
	if !isClosingFence(md[closeStart:closeEnd]) {
		return Block{}, fmt.Errorf("line %d: plantuml code block is never closed", line)
	}

	return Block{
		Start:  start,
		End:    closeEnd,
		Line:   line,
		Source: src.String(),
	}, nil
}

func lineStart(md []byte, i int) int {
	return bytes.LastIndexByte(md[:i], '\n') + 1
}

// lineEnd returns the offset just past the newline ending the line containing i.
func lineEnd(md []byte, i int) int {
	j := bytes.IndexByte(md[i:], '\n')
	if j == -1 {
		return len(md)
	}
	return i + j + 1
}

func isClosingFence(l []byte) bool {
	l = bytes.TrimLeft(l, " >\t")
	l = bytes.TrimRight(l, " \t\r\n")
	if len(l) < 3 {
		return false
	}
	c := l[0]
	if c != '`' && c != '~' {
		return false
	}
	for _, b := range l {
		if b != c {
			return false
		}
	}
	return true
}
