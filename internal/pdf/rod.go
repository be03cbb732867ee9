package pdf

import (
	"context"
	"fmt"
	"io"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodPrinter prints through a headless Chromium driven by go-rod.
type RodPrinter struct {
	// Bin is the browser binary; empty lets the launcher find or download one.
	Bin string
}

// Print implements Printer.
func (r RodPrinter) Print(ctx context.Context, document []byte) ([]byte, error) {
	l := launcher.New().Headless(true)
	if r.Bin != "" {
		l = l.Bin(r.Bin)
	}
	defer l.Cleanup()

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(url).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	if err := page.SetDocumentContent(string(document)); err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("waiting for document: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return nil, fmt.Errorf("printing: %w", err)
	}
	return io.ReadAll(stream)
}
