package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

func (p *PDFProvider) GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error) {
	cfg := config.NewBuilder().Build()
	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(6, "Payment receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(6, data.ReceiptNumber, props.Text{
			Size:  10,
			Align: align.Right,
			Top:   4,
		}),
	)

	m.AddRow(15,
		text.NewCol(12, data.AmountPaid+" received on "+data.PaymentDate, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	rows := []struct{ label, value string }{
		{"Customer", data.CustomerName},
		{"Meter", data.SerialNumber},
		{"Bill", data.BillID},
		{"Bill total", data.BillTotal},
		{"Method", data.PaymentMethod},
		{"Processed by", data.ProcessedBy},
	}
	for _, r := range rows {
		m.AddRow(8,
			text.NewCol(3, r.label, props.Text{Size: 9, Style: fontstyle.Bold}),
			text.NewCol(9, r.value, props.Text{Size: 9}),
		)
	}
	m.AddRow(10, col.New(12))

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
