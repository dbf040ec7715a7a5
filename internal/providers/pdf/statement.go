package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

func (p *PDFProvider) GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, data.Title, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, data.Period, props.Text{
			Size:  12,
			Align: align.Right,
			Top:   3,
		}),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New(data.CustomerName, props.Text{Style: fontstyle.Bold}),
			text.New(data.Address, props.Text{Top: 5}),
			text.New(data.Phone, props.Text{Top: 10}),
			text.New(data.Email, props.Text{Top: 15}),
		),
		col.New(6).Add(
			text.New("Customer type: "+data.CustomerType, props.Text{Align: align.Right}),
			text.New("Generated: "+data.GeneratedAt, props.Text{Top: 5, Align: align.Right}),
		),
	)

	header := props.Text{Style: fontstyle.Bold, Size: 8}
	headerRight := props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}
	m.AddRow(8,
		text.NewCol(2, "Bill date", header),
		text.NewCol(2, "Meter", header),
		text.NewCol(2, "Utility", header),
		text.NewCol(1, "Units", headerRight),
		text.NewCol(1, "Amount", headerRight),
		text.NewCol(2, "Due", header),
		text.NewCol(1, "Status", header),
		text.NewCol(1, "Paid", headerRight),
	)
	m.AddRow(2, line.NewCol(12))

	cell := props.Text{Size: 8}
	cellRight := props.Text{Size: 8, Align: align.Right}
	if len(data.Lines) == 0 {
		m.AddRow(10, text.NewCol(12, "No bills in this period.", props.Text{Size: 9, Style: fontstyle.Italic}))
	}
	for _, l := range data.Lines {
		m.AddRow(7,
			text.NewCol(2, l.BillDate, cell),
			text.NewCol(2, l.SerialNumber, cell),
			text.NewCol(2, l.UtilityType, cell),
			text.NewCol(1, l.Units, cellRight),
			text.NewCol(1, l.Amount, cellRight),
			text.NewCol(2, l.DueDate, cell),
			text.NewCol(1, l.Status, cell),
			text.NewCol(1, l.Paid, cellRight),
		)
	}

	m.AddRow(2, line.NewCol(12))
	totals := []struct{ label, value string }{
		{"Total billed", data.TotalBilled},
		{"Total paid", data.TotalPaid},
		{"Balance due", data.BalanceDue},
	}
	for _, t := range totals {
		m.AddRow(7,
			col.New(8),
			text.NewCol(2, t.label, props.Text{Size: 9, Style: fontstyle.Bold}),
			text.NewCol(2, t.value, props.Text{Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
