package orders

import (
	"bytes"
	"fmt"

	"homecook/models"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// RenderReceipt draws a one page PDF with the order lines, totals and a QR
// code carrying the order id.
func RenderReceipt(o *models.Order) ([]byte, error) {
	qrPNG, err := qrcode.Encode("order:"+o.ID, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("generate QR code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Order Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Order ID: %s", o.ID))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Date: %s", o.CreatedAt.Format("2006-01-02 15:04")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Deliver to: %s", o.DeliveryAddress))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Payment: %s", o.PaymentMethodType))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(90, 8, "Dish", "1", 0, "", false, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, "Unit", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Line", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, item := range o.OrderItems {
		name := item.Name
		if name == "" {
			name = item.Dish
		}
		pdf.CellFormat(90, 8, name, "1", 0, "", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%.2f", item.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%.2f", item.Price*float64(item.Quantity)), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
	pdf.Cell(0, 8, fmt.Sprintf("Delivery fee: %.2f", o.DeliveryFee))
	pdf.Ln(7)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %.2f", o.TotalOrderPrice))
	pdf.Ln(7)

	status := "unpaid"
	if o.IsPaid {
		status = "paid"
	}
	if o.IsDelivered {
		status += ", delivered"
	}
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 8, "Status: "+status)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 155, 15, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
