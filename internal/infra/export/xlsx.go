package export

import (
	"fmt"
	"io"
	"time"

	"shoporder/internal/usecase"

	"github.com/tealeg/xlsx"
)

const (
	timeLayout  = "2006-01-02 15:04:05"
	ordersSheet = "Orders"
	itemsSheet  = "Items"
)

var (
	orderHeaders = []string{
		"ID", "OrderNumber", "UserID", "Type", "Status", "PaymentStatus",
		"Total", "DeliveryFee", "PickupCode", "TableNumber", "DeliveryAddress",
		"ContactName", "ContactPhone", "Notes", "CreatedAt", "CancelledAt",
	}
	itemHeaders = []string{
		"OrderNumber", "ProductID", "ProductName", "UnitPrice", "Quantity", "Subtotal", "Notes",
	}
)

// 管理画面の注文一覧をxlsxにする（注文シート + 明細シート）
type XLSXExporter struct {
	loc *time.Location
}

func NewXLSXExporter(loc *time.Location) *XLSXExporter {
	if loc == nil {
		loc = time.Local
	}
	return &XLSXExporter{loc: loc}
}

func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *XLSXExporter) FileExtension() string { return "xlsx" }

func (e *XLSXExporter) WriteOrders(w io.Writer, orders []usecase.OrderOutput) error {
	file := xlsx.NewFile()
	orderSheet, err := file.AddSheet(ordersSheet)
	if err != nil {
		return fmt.Errorf("adding orders sheet: %w", err)
	}
	itemSheet, err := file.AddSheet(itemsSheet)
	if err != nil {
		return fmt.Errorf("adding items sheet: %w", err)
	}

	addHeader(orderSheet, orderHeaders)
	addHeader(itemSheet, itemHeaders)

	for _, o := range orders {
		row := orderSheet.AddRow()
		row.AddCell().SetInt64(o.ID)
		row.AddCell().SetString(o.OrderNumber)
		row.AddCell().SetInt64(o.UserID)
		row.AddCell().SetString(o.OrderType)
		row.AddCell().SetString(o.Status)
		row.AddCell().SetString(o.PaymentStatus)
		row.AddCell().SetString(o.TotalAmount.StringFixed(2))
		row.AddCell().SetString(o.DeliveryFee.StringFixed(2))
		row.AddCell().SetString(deref(o.PickupCode))
		row.AddCell().SetString(o.TableNumber)
		row.AddCell().SetString(o.DeliveryAddress)
		row.AddCell().SetString(o.ContactName)
		row.AddCell().SetString(o.ContactPhone)
		row.AddCell().SetString(o.Notes)
		row.AddCell().SetString(o.CreatedAt.In(e.loc).Format(timeLayout))
		if o.CancelledAt != nil {
			row.AddCell().SetString(o.CancelledAt.In(e.loc).Format(timeLayout))
		} else {
			row.AddCell().SetString("")
		}

		for _, it := range o.Items {
			ir := itemSheet.AddRow()
			ir.AddCell().SetString(o.OrderNumber)
			ir.AddCell().SetInt64(it.ProductID)
			ir.AddCell().SetString(it.ProductName)
			ir.AddCell().SetString(it.UnitPrice.StringFixed(2))
			ir.AddCell().SetInt64(it.Quantity)
			ir.AddCell().SetString(it.Subtotal.StringFixed(2))
			ir.AddCell().SetString(it.Notes)
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}

func addHeader(sheet *xlsx.Sheet, headers []string) {
	row := sheet.AddRow()
	for _, h := range headers {
		row.AddCell().SetString(h)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
