// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopspring/decimal"

	"github.com/your-org/food-ordering-backend/internal/config"
	"github.com/your-org/food-ordering-backend/internal/domain/order"
)

var receiptTmpl = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("January 2, 2006 15:04") },
}).Parse(receiptTemplate))

// Service handles PDF generation
type Service struct {
	config  *config.Config
	now     func() time.Time
	convert func(html []byte) ([]byte, error)
}

// NewService creates a new PDF service backed by wkhtmltopdf
func NewService(cfg *config.Config) *Service {
	return &Service{
		config:  cfg,
		now:     time.Now,
		convert: htmlToPDF,
	}
}

// ReceiptData represents the data passed to the receipt template
type ReceiptData struct {
	ReceiptNumber string
	IssuedAt      time.Time
	Order         *order.Detail
	Company       config.CompanyConfig
}

// GenerateReceipt renders an order receipt as PDF
func (s *Service) GenerateReceipt(detail *order.Detail) (*bytes.Buffer, error) {
	htmlContent, err := s.RenderHTML(detail)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdf, err := s.convert(htmlContent)
	if err != nil {
		return nil, err
	}
	return bytes.NewBuffer(pdf), nil
}

// RenderHTML fills the receipt template for an order
func (s *Service) RenderHTML(detail *order.Detail) ([]byte, error) {
	data := ReceiptData{
		ReceiptNumber: "RCT-" + detail.OrderNumber,
		IssuedAt:      s.now(),
		Order:         detail,
		Company:       s.config.Company,
	}

	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func htmlToPDF(htmlContent []byte) ([]byte, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA5)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(htmlContent))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return pdfg.Bytes(), nil
}

// Receipt HTML template
const receiptTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Receipt {{.ReceiptNumber}}</title>
    <style>
        body { font-family: Helvetica, Arial, sans-serif; margin: 0; padding: 24px; color: #222; font-size: 13px; }
        .top { display: flex; justify-content: space-between; border-bottom: 3px solid #e4572e; padding-bottom: 16px; margin-bottom: 24px; }
        .top h1 { margin: 0 0 6px; font-size: 22px; }
        .meta { text-align: right; }
        .meta .title { font-size: 26px; font-weight: bold; color: #e4572e; letter-spacing: 2px; }
        .row { display: flex; gap: 24px; margin-bottom: 20px; }
        .row > div { flex: 1; }
        h2 { font-size: 14px; text-transform: uppercase; color: #555; margin: 0 0 8px; }
        .badge { padding: 2px 8px; border-radius: 10px; background: #fde8e1; color: #a3341a; font-weight: bold; text-transform: uppercase; font-size: 11px; }
        table.lines { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
        table.lines th { background: #f4f4f4; text-align: left; padding: 10px 8px; border-bottom: 2px solid #ccc; }
        table.lines td { padding: 10px 8px; border-bottom: 1px solid #e5e5e5; }
        table.lines .num { text-align: right; width: 90px; }
        table.sums { margin-left: auto; width: 280px; border-collapse: collapse; }
        table.sums td { padding: 6px 8px; text-align: right; }
        table.sums tr.grand td { font-size: 16px; font-weight: bold; border-top: 2px solid #222; }
        .thanks { margin-top: 40px; text-align: center; color: #777; font-size: 11px; }
    </style>
</head>
<body>
    <div class="top">
        <div>
            <h1>{{.Company.Name}}</h1>
            {{if .Company.Address}}<div>{{.Company.Address}}</div>{{end}}
            {{if .Company.Phone}}<div>{{.Company.Phone}}</div>{{end}}
            {{if .Company.Email}}<div>{{.Company.Email}}</div>{{end}}
            {{if .Company.Website}}<div>{{.Company.Website}}</div>{{end}}
        </div>
        <div class="meta">
            <div class="title">RECEIPT</div>
            <div>No. {{.ReceiptNumber}}</div>
            <div>Issued {{date .IssuedAt}}</div>
        </div>
    </div>

    <div class="row">
        <div>
            <h2>Order</h2>
            <div>{{.Order.OrderNumber}}</div>
            <div>Placed {{date .Order.CreatedAt}}</div>
            <div><span class="badge">{{.Order.Status}}</span></div>
            {{if .Order.EstimatedDelivery}}<div>Expected {{date .Order.EstimatedDelivery}}</div>{{end}}
        </div>
        <div>
            <h2>Deliver to</h2>
            {{with .Order.User}}<div><strong>{{.FullName}}</strong></div>{{end}}
            {{with .Order.Address}}
            <div>{{.Title}}</div>
            <div>{{.FullAddress}}</div>
            <div>{{.PhoneNumber}}</div>
            {{end}}
            {{with .Order.Notes}}<div><em>{{.}}</em></div>{{end}}
        </div>
    </div>

    <table class="lines">
        <thead>
            <tr><th>Item</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Amount</th></tr>
        </thead>
        <tbody>
            {{range .Order.Items}}
            <tr>
                <td>{{.ProductName}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{money .UnitPrice}}</td>
                <td class="num">{{money .TotalPrice}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <table class="sums">
        <tr><td>Subtotal</td><td>{{money .Order.Subtotal}}</td></tr>
        {{if .Order.DiscountAmount.IsPositive}}
        <tr><td>Discount{{with .Order.DiscountCode}} {{.}}{{end}}</td><td>-{{money .Order.DiscountAmount}}</td></tr>
        {{end}}
        <tr><td>Delivery</td><td>{{money .Order.DeliveryCost}}</td></tr>
        <tr class="grand"><td>Total</td><td>{{money .Order.TotalAmount}}</td></tr>
    </table>

    <div class="thanks">
        <p>Thanks for ordering with {{.Company.Name}}.</p>
        {{with .Company.Email}}<p>Questions about this order? Write to {{.}}.</p>{{end}}
    </div>
</body>
</html>
`
