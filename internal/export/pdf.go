package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

const (
	pdfTitleSize   = 16
	pdfInfoSize    = 10
	pdfLeading     = 14
	pdfParaSpacing = 12
	bodyFontFamily = "body"
)

// PDFOptions holds PDF layout settings
type PDFOptions struct {
	PageSize string
	FontSize float64
	Margins  float64
	// FontPath optionally points at a TTF font used for full Unicode output.
	// Without it the core Helvetica font is used and text is mapped to cp1252.
	FontPath string
	Creator  string
}

func (o PDFOptions) withDefaults() PDFOptions {
	if o.PageSize == "" {
		o.PageSize = "A4"
	}
	if o.FontSize <= 0 {
		o.FontSize = 11
	}
	if o.Margins <= 0 {
		o.Margins = 72
	}
	return o
}

func renderPDF(tr *models.Transcript, opts PDFOptions, now time.Time) ([]byte, error) {
	opts = opts.withDefaults()

	pdf := fpdf.New("P", "pt", opts.PageSize, "")
	pdf.SetMargins(opts.Margins, opts.Margins, opts.Margins)
	pdf.SetAutoPageBreak(true, opts.Margins)
	pdf.SetTitle(documentTitle+" - "+tr.Video.VideoID, false)
	pdf.SetSubject("Transcript of YouTube video "+tr.Video.VideoID, false)
	if opts.Creator != "" {
		pdf.SetCreator(opts.Creator, false)
	}
	pdf.SetCreationDate(now)

	family := "Helvetica"
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	if opts.FontPath != "" {
		pdf.AddUTF8Font(bodyFontFamily, "", opts.FontPath)
		pdf.AddUTF8Font(bodyFontFamily, "B", opts.FontPath)
		family = bodyFontFamily
		translate = func(s string) string { return s }
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to set up PDF: %w", err)
	}

	pdf.AddPage()

	pdf.SetFont(family, "B", pdfTitleSize)
	pdf.CellFormat(0, pdfTitleSize*1.5, translate(documentTitle), "", 1, "C", false, 0, "")
	pdf.Ln(pdfTitleSize)

	for _, kv := range infoLines(tr, now) {
		pdf.SetFont(family, "B", pdfInfoSize)
		pdf.Write(pdfInfoSize*1.4, translate(kv[0]+": "))
		pdf.SetFont(family, "", pdfInfoSize)
		pdf.Write(pdfInfoSize*1.4, translate(kv[1]))
		pdf.Ln(pdfInfoSize * 1.4)
	}
	pdf.Ln(20)

	pdf.SetFont(family, "", opts.FontSize)
	for _, para := range splitSentences(tr.FullText) {
		pdf.MultiCell(0, pdfLeading, translate(para), "", "L", false)
		pdf.Ln(pdfParaSpacing)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func infoLines(tr *models.Transcript, now time.Time) [][2]string {
	lines := [][2]string{
		{"Video ID", tr.Video.VideoID},
		{"URL", tr.Video.URL},
	}
	if tr.Video.Title != "" {
		lines = append(lines, [2]string{"Title", tr.Video.Title})
	}
	return append(lines,
		[2]string{"Language", tr.Language},
		[2]string{"Auto-generated", yesNo(tr.IsGenerated)},
		[2]string{"Word Count", formatThousands(tr.WordCount)},
		[2]string{"Duration", fmt.Sprintf("%.2f seconds", tr.DurationSeconds)},
		[2]string{"Generated on", now.UTC().Format("2006-01-02 15:04:05 UTC")},
	)
}

// splitSentences breaks text into paragraphs on the literal ". " separator.
// A period is re-appended to every fragment but the last. This is a layout
// heuristic, not sentence detection: "Dr. Smith" splits too.
func splitSentences(text string) []string {
	parts := strings.Split(text, ". ")
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if i < len(parts)-1 && !strings.HasSuffix(p, ".") {
			p += "."
		}
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func formatThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return "-" + formatThousands(-n)
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
