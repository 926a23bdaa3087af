package utils

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"dailybread/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

//go:embed templates/giving_statement.html
var templateFS embed.FS

var statementTmpl = template.Must(template.ParseFS(templateFS, "templates/giving_statement.html"))

// RenderStatementHTML executes the giving statement template.
func RenderStatementHTML(data *models.GivingStatementData) ([]byte, error) {
	var buf bytes.Buffer
	if err := statementTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HTMLToPDF prints an HTML document to a US Letter PDF with headless Chrome.
func HTMLToPDF(ctx context.Context, html []byte) ([]byte, error) {
	tmpHTML := filepath.Join(os.TempDir(), "statement_"+time.Now().Format("20060102150405.000000000")+".html")
	if err := os.WriteFile(tmpHTML, html, 0o644); err != nil {
		return nil, err
	}
	defer os.Remove(tmpHTML)

	cctx, cancel := chromedp.NewContext(ctx)
	defer cancel()
	cctx, cancelTimeout := context.WithTimeout(cctx, 30*time.Second)
	defer cancelTimeout()

	var pdfBuf []byte
	err := chromedp.Run(cctx,
		chromedp.Navigate("file://"+tmpHTML),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.5).
				WithPaperHeight(11).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}
