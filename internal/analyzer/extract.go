package analyzer

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// Page is one extracted page: the native text layer plus the raw bytes an OCR
// engine would consume when the text layer is sparse.
type Page struct {
	Number int
	Text   string
	Raw    []byte
}

// TextExtractor pulls the native text layer out of a document. Implementations
// are transport-agnostic; the analyzer only sees pages.
type TextExtractor interface {
	Extract(ctx context.Context, r io.Reader) ([]Page, error)
}

// OCREngine recognizes text from a page image. Engines can be backed by local
// binaries, native libraries, or remote APIs; the interface is deliberately
// small so provider concerns never leak into the analyzer. OCR output is
// best-effort and not guaranteed to be byte-identical across runs.
type OCREngine interface {
	RecognizePage(ctx context.Context, page Page) (string, error)
}

// PlainTextExtractor handles text-native formats (txt, exported dxf text,
// pre-extracted pdf text). Pages are delimited by form feeds, matching what
// common pdf-to-text tools emit.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(ctx context.Context, r io.Reader) ([]Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var pages []Page
	var buf strings.Builder
	var raw []byte

	flush := func() {
		pages = append(pages, Page{Number: len(pages) + 1, Text: buf.String(), Raw: raw})
		buf.Reset()
		raw = nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		raw = append(raw, sc.Bytes()...)
		raw = append(raw, '\n')
		for {
			i := strings.IndexByte(line, '\f')
			if i < 0 {
				break
			}
			buf.WriteString(line[:i])
			flush()
			line = line[i+1:]
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if buf.Len() > 0 || len(pages) == 0 && len(raw) > 0 {
		flush()
	}
	return pages, nil
}
