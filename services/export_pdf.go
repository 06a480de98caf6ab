package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// GenerateQuotationPDF renders a quotation export as a PDF using maroto/v2.
func GenerateQuotationPDF(data *QuotationExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addQuotationHeader(m, data)
	addQuotationTableHeader(m)
	for _, r := range data.Rows {
		addQuotationRow(m, r)
	}
	addQuotationSummary(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addQuotationHeader(m core.Maroto, data *QuotationExportData) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(fmt.Sprintf("Quotation %s", data.QuotationNumber), props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)
	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("Client: %s | %s", data.ClientName, data.YachtModel), props.Text{
					Size:  9,
					Align: align.Left,
					Color: &props.Color{Red: 80, Green: 80, Blue: 80},
				}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Date: %s", data.CreatedDate), props.Text{
					Size:  9,
					Align: align.Right,
					Color: &props.Color{Red: 80, Green: 80, Blue: 80},
				}),
			),
		),
	)
	m.AddRows(row.New(4))
}

func addQuotationTableHeader(m core.Maroto) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left

	headerCell := props.Cell{BackgroundColor: headerBg}

	m.AddRows(
		row.New(8).Add(
			col.New(2).Add(text.New("Code", headerTextLeft)).WithStyle(&headerCell),
			col.New(4).Add(text.New("Item", headerTextLeft)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Status", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Suggested", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Final Price", headerText)).WithStyle(&headerCell),
		),
	)
}

func addQuotationRow(m core.Maroto, r QuotationExportRow) {
	baseText := props.Text{Size: 7, Align: align.Center}
	leftText := baseText
	leftText.Align = align.Left
	rightText := baseText
	rightText.Align = align.Right

	var cellStyle *props.Cell
	if r.Section == "memorial" {
		bg := &props.Color{Red: 245, Green: 245, Blue: 245}
		cellStyle = &props.Cell{BackgroundColor: bg}
	}

	suggested := ""
	finalPrice := ""
	if r.Section == "customization" {
		suggested = FormatBRL(r.Suggested)
		finalPrice = FormatBRL(r.FinalPrice)
	}

	colCode := col.New(2).Add(text.New(r.Code, leftText))
	colName := col.New(4).Add(text.New(r.Name, leftText))
	colStatus := col.New(2).Add(text.New(r.Status, baseText))
	colSuggested := col.New(2).Add(text.New(suggested, rightText))
	colFinal := col.New(2).Add(text.New(finalPrice, rightText))

	if cellStyle != nil {
		colCode.WithStyle(cellStyle)
		colName.WithStyle(cellStyle)
		colStatus.WithStyle(cellStyle)
		colSuggested.WithStyle(cellStyle)
		colFinal.WithStyle(cellStyle)
	}

	m.AddRows(row.New(6).Add(colCode, colName, colStatus, colSuggested, colFinal))
}

func addQuotationSummary(m core.Maroto, data *QuotationExportData) {
	m.AddRows(row.New(4))

	summaryText := props.Text{Size: 9, Align: align.Right}
	boldText := summaryText
	boldText.Style = fontstyle.Bold

	addLine := func(label, value string, bold bool) {
		style := summaryText
		if bold {
			style = boldText
		}
		m.AddRows(
			row.New(6).Add(
				col.New(8),
				col.New(2).Add(text.New(label, style)),
				col.New(2).Add(text.New(value, style)),
			),
		)
	}

	addLine("Base price", FormatBRL(data.BasePrice), false)
	addLine("Options", FormatBRL(data.OptionsPrice), false)
	addLine("Customizations", FormatBRL(data.CustomizationsTotal), false)
	addLine("Final price", FormatBRL(data.FinalPrice), true)
	addLine("Delivery", fmt.Sprintf("%d days", data.TotalDeliveryDays), false)
}
