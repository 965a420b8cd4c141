package invoice

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin    = 18.0
	pdfPageWidth = 210.0
	pdfLineH     = 6.0
)

var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"Date", 34, "L"},
	{"Start", 24, "L"},
	{"End", 24, "L"},
	{"Duration", 54, "L"},
	{"Amount", 38, "R"},
}

// PDFRenderer lays the invoice out natively, without a browser.
type PDFRenderer struct {
	fontPath string
}

// NewPDFRenderer returns a renderer using the TrueType font at fontPath, or
// the built-in Helvetica when fontPath is empty.
func NewPDFRenderer(fontPath string) *PDFRenderer {
	return &PDFRenderer{fontPath: fontPath}
}

type pdfWriter struct {
	pdf    *gofpdf.Fpdf
	family string
	tr     func(string) string
}

func (r *PDFRenderer) newWriter(doc Document) *pdfWriter {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice for "+doc.Recipient, true)
	pdf.SetAuthor(doc.Payee.Name, true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)

	w := &pdfWriter{pdf: pdf}
	if r.fontPath != "" {
		w.family = "Body"
		pdf.AddUTF8Font(w.family, "", r.fontPath)
		pdf.AddUTF8Font(w.family, "B", r.fontPath)
		w.tr = func(s string) string { return s }
	} else {
		// Core fonts are cp1252; the translator maps "£" and friends.
		w.family = "Helvetica"
		w.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		w.font("", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	return w
}

// Render writes the document as PDF.
func (r *PDFRenderer) Render(_ context.Context, doc Document) ([]byte, error) {
	w := r.newWriter(doc)
	pdf := w.pdf
	pdf.AddPage()

	w.font("B", 20)
	pdf.CellFormat(0, 10, "INVOICE", "", 1, "L", false, 0, "")
	w.font("B", 13)
	pdf.CellFormat(0, 7, w.tr(doc.Recipient), "", 1, "L", false, 0, "")
	w.font("", 10)
	w.kv("Period", doc.Period)
	w.kv("Issued", doc.IssueDate)
	pdf.Ln(3)

	for i, sec := range doc.Sections {
		if doc.Agency {
			if i > 0 {
				pdf.AddPage()
			}
			w.font("B", 12)
			pdf.CellFormat(0, 8, w.tr(sec.Client), "", 1, "L", false, 0, "")
		}
		w.table(sec)
		pdf.Ln(4)
	}

	w.font("", 10)
	pdf.CellFormat(0, pdfLineH, w.tr("Total time: "+doc.TotalDuration), "", 1, "R", false, 0, "")
	w.font("B", 13)
	pdf.CellFormat(0, 8, w.tr("Amount due: "+doc.Total), "", 1, "R", false, 0, "")
	w.hr()

	w.font("B", 12)
	pdf.CellFormat(0, 8, "Payment details", "", 1, "L", false, 0, "")
	w.kv("Name", doc.Payee.Name)
	w.kv("Sort code", doc.Payee.SortCode)
	w.kv("Account number", doc.Payee.AccountNumber)
	w.kv("Bank", doc.Payee.Bank)
	if doc.PaymentLink != "" {
		w.link("Pay online", doc.PaymentLink)
	}
	if doc.QRCodeLink != "" {
		w.link("QR code", doc.QRCodeLink)
	}
	pdf.Ln(4)
	w.font("", 9)
	pdf.CellFormat(0, 5, w.tr(doc.Contact.Phone+"  |  "+doc.Contact.Email), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: failed to render invoice for %s: %w", doc.Recipient, err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) Extension() string { return "pdf" }

func (r *PDFRenderer) Name() string { return RendererPDF }

func (w *pdfWriter) font(style string, size float64) {
	w.pdf.SetFont(w.family, style, size)
}

func (w *pdfWriter) kv(key, val string) {
	w.font("B", 10)
	w.pdf.CellFormat(40, pdfLineH, w.tr(key+":"), "", 0, "L", false, 0, "")
	w.font("", 10)
	w.pdf.CellFormat(0, pdfLineH, w.tr(val), "", 1, "L", false, 0, "")
}

func (w *pdfWriter) link(label, url string) {
	w.font("B", 10)
	w.pdf.CellFormat(40, pdfLineH, w.tr(label+":"), "", 0, "L", false, 0, "")
	w.font("", 10)
	w.pdf.SetTextColor(20, 70, 160)
	w.pdf.CellFormat(0, pdfLineH, w.tr(url), "", 1, "L", false, 0, url)
	w.pdf.SetTextColor(0, 0, 0)
}

func (w *pdfWriter) hr() {
	y := w.pdf.GetY() + 1.5
	w.pdf.SetLineWidth(0.2)
	w.pdf.Line(pdfMargin, y, pdfPageWidth-pdfMargin, y)
	w.pdf.SetY(y + 2)
}

func (w *pdfWriter) table(sec Section) {
	pdf := w.pdf
	w.font("B", 10)
	pdf.SetFillColor(242, 242, 242)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 7, col.title, "B", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	w.font("", 10)
	for _, l := range sec.Lines {
		cells := []string{l.Date, l.Start, l.End, l.Duration, l.Amount}
		for i, col := range pdfColumns {
			pdf.CellFormat(col.width, pdfLineH, w.tr(cells[i]), "B", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	w.font("B", 10)
	rateWidth := pdfColumns[0].width + pdfColumns[1].width + pdfColumns[2].width
	pdf.CellFormat(rateWidth, pdfLineH, w.tr("Rate "+sec.Rate+" per hour"), "", 0, "L", false, 0, "")
	pdf.CellFormat(pdfColumns[3].width, pdfLineH, w.tr(sec.Duration), "", 0, "L", false, 0, "")
	pdf.CellFormat(pdfColumns[4].width, pdfLineH, w.tr(sec.Subtotal), "", 1, "R", false, 0, "")
}
