package ingestion

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/documentloaders"
)

// Extractor returns the text of each page of a document, in page order.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]string, error)
}

// PDFExtractor extracts page text with the langchaingo PDF loader.
type PDFExtractor struct {
	// Password opens encrypted PDFs. Empty for unencrypted files.
	Password string
}

var _ Extractor = PDFExtractor{}

// Extract loads path and returns one string per page.
func (e PDFExtractor) Extract(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	var opts []documentloaders.PDFOptions
	if e.Password != "" {
		opts = append(opts, documentloaders.WithPassword(e.Password))
	}
	docs, err := documentloaders.NewPDF(f, info.Size(), opts...).Load(ctx)
	if err != nil {
		return nil, err
	}

	pages := make([]string, len(docs))
	for i, d := range docs {
		pages[i] = d.PageContent
	}
	return pages, nil
}
