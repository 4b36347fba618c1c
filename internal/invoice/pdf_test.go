package invoice_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotecalc/internal/invoice"
)

func TestPDFExporterRequiresPrintRenderer(t *testing.T) {
	_, err := invoice.PDFExporter{}.Export(context.Background(), invoice.Document{})
	require.ErrorIs(t, err, invoice.ErrPrintRendererMissing)
}

func TestDetectChromePathIgnoresMissingConfigured(t *testing.T) {
	got := invoice.DetectChromePath("/definitely/not/chrome")
	require.NotEqual(t, "/definitely/not/chrome", got)
}

func TestPDFExporterPrintsDocument(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	chrome := invoice.DetectChromePath("")
	if chrome == "" {
		t.Skip("no chrome installation found")
	}
	print, err := invoice.NewPrintRenderer()
	require.NoError(t, err)

	exporter := invoice.PDFExporter{Print: print, ChromePath: chrome, Timeout: time.Minute}
	data, err := exporter.Export(context.Background(), project(testConfig(), testRows()))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")), "expected a PDF header")
}
