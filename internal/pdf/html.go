// Package pdf exports a shopping list as a printable document. The list is
// rendered to HTML with goldmark and handed to a Printer.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Printer turns an HTML document into PDF bytes.
type Printer interface {
	Print(ctx context.Context, document []byte) ([]byte, error)
}

// ErrEmptyDocument is returned when there is nothing to export.
var ErrEmptyDocument = errors.New("empty document")

const stylesheet = `body { font-family: sans-serif; font-size: 11pt; margin: 2cm; }
h1 { font-size: 16pt; border-bottom: 1px solid #999; }
h2 { font-size: 13pt; margin-top: 1.2em; }
ul { list-style: none; padding-left: 0; }
li { padding: 2px 0; }
li::before { content: "\2610\00a0"; }
`

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML renders markdown as a standalone HTML document with title as its
// heading.
func HTML(title string, markdown string) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title>\n<style>\n")
	b.WriteString(stylesheet)
	b.WriteString("</style>\n</head>\n<body>\n<h1>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</h1>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.Bytes(), nil
}

// Export renders markdown and prints it with p.
func Export(ctx context.Context, p Printer, title, markdown string) ([]byte, error) {
	if markdown == "" {
		return nil, ErrEmptyDocument
	}
	doc, err := HTML(title, markdown)
	if err != nil {
		return nil, err
	}
	out, err := p.Print(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("printing pdf: %w", err)
	}
	return out, nil
}
