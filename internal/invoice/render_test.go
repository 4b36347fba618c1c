package invoice_test

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotecalc/internal/invoice"
	"github.com/noah-isme/quotecalc/internal/pricing"
)

var (
	lineCellRe  = regexp.MustCompile(`class="(?:[^"]* )?(line-[a-z]+)">([^<]*)<`)
	totalCellRe = regexp.MustCompile(`id="(total-in-words|sub-total|total|balance-due)">(?:<strong>)?([^<]*)<`)
)

type figures struct {
	lines  [][]string
	totals map[string]string
}

// extractFigures collects the (index, name, qty, rate, amount) tuples and totals-block
// values from rendered HTML.
func extractFigures(t *testing.T, html string) figures {
	t.Helper()
	var f figures
	var current []string
	for _, m := range lineCellRe.FindAllStringSubmatch(html, -1) {
		if m[1] == "line-index" && current != nil {
			f.lines = append(f.lines, current)
			current = nil
		}
		current = append(current, m[1]+"="+m[2])
	}
	if current != nil {
		f.lines = append(f.lines, current)
	}
	f.totals = map[string]string{}
	for _, m := range totalCellRe.FindAllStringSubmatch(html, -1) {
		f.totals[m[1]] = m[2]
	}
	return f
}

func renderBoth(t *testing.T, doc invoice.Document) (string, string) {
	t.Helper()
	screen, err := invoice.NewScreenRenderer()
	require.NoError(t, err)
	print, err := invoice.NewPrintRenderer()
	require.NoError(t, err)

	var a, b bytes.Buffer
	require.NoError(t, screen.Render(&a, doc))
	require.NoError(t, print.Render(&b, doc))
	return a.String(), b.String()
}

func TestRenderersShowIdenticalFigures(t *testing.T) {
	rows := append(testRows(), pricing.Row{
		Item: pricing.Item{Name: `Fish & Chips <deluxe>`, Price: 0.1, PaymentType: pricing.Full}, ID: "f2", Quantity: 3, Discount: 33.3,
	})
	doc := project(testConfig(), rows)
	screenHTML, printHTML := renderBoth(t, doc)

	screen := extractFigures(t, screenHTML)
	print := extractFigures(t, printHTML)

	require.Len(t, screen.lines, len(doc.Lines))
	require.Equal(t, screen.lines, print.lines)
	require.Equal(t, screen.totals, print.totals)
	require.Len(t, screen.totals, 4)
	require.Equal(t, doc.Totals.TotalText, screen.totals["total"])
	require.Equal(t, doc.Totals.InWords, screen.totals["total-in-words"])

	for i, line := range doc.Lines {
		require.Equal(t, []string{
			"line-index=" + strconv.Itoa(line.Index),
			"line-name=" + htmlEscape(line.Name),
			"line-qty=" + line.QuantityText,
			"line-rate=" + line.RateText,
			"line-amount=" + line.AmountText,
		}, screen.lines[i])
	}
}

func TestRenderersEmptyDocument(t *testing.T) {
	doc := project(testConfig(), nil)
	screenHTML, printHTML := renderBoth(t, doc)
	require.Empty(t, extractFigures(t, screenHTML).lines)
	require.Equal(t, extractFigures(t, screenHTML).totals, extractFigures(t, printHTML).totals)
	require.Contains(t, screenHTML, "QUOTE")
	require.Contains(t, printHTML, "@page")
}

func TestRenderOmitsUnsafeLogo(t *testing.T) {
	cfg := testConfig()
	cfg.CompanyLogo = "javascript:alert(1)"
	screenHTML, printHTML := renderBoth(t, project(cfg, nil))
	require.NotContains(t, screenHTML, "<img")
	require.NotContains(t, printHTML, "<img")

	cfg.CompanyLogo = "data:image/png;base64,AAAA"
	screenHTML, _ = renderBoth(t, project(cfg, nil))
	require.Contains(t, screenHTML, `src="data:image/png;base64,AAAA"`)
}

func TestRendererTargets(t *testing.T) {
	screen, err := invoice.NewScreenRenderer()
	require.NoError(t, err)
	print, err := invoice.NewPrintRenderer()
	require.NoError(t, err)
	require.Equal(t, "screen", screen.Target())
	require.Equal(t, "print", print.Target())
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
