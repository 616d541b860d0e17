// Package export renders orders and subscribers for download. Nothing here touches the network.
package export

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/tealeg/xlsx"

	"clothsy/internal/domain"
)

// Header is the column set shared by the CSV and XLSX exports.
var Header = []string{"Order ID", "Date", "Customer", "Phone", "City", "Items", "Total", "Status"}

const dateLayout = "1/2/2006"

func row(o domain.Order) []string {
	return []string{
		o.ID,
		o.CreatedAt.Format(dateLayout),
		o.CustomerName,
		o.CustomerPhone,
		o.CustomerCity,
		strconv.Itoa(o.Quantity),
		o.Total().String(),
		string(o.Status),
	}
}

// OrdersCSV returns a header line plus one line per order, in the given order.
func OrdersCSV(orders []domain.Order) (string, error) {
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, row(o))
	}
	return csvString(Header, rows)
}

// SubscriberHeader is the column set of the subscriber export.
var SubscriberHeader = []string{"Email", "Date Joined"}

// SubscribersCSV lists subscribers with the day they joined (YYYY-MM-DD, UTC).
func SubscribersCSV(subs []domain.Subscriber) (string, error) {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, []string{s.Email, domain.Day(s.SubscribedAt)})
	}
	return csvString(SubscriberHeader, rows)
}

func csvString(header []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return "", err
	}
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteOrdersXLSX writes the same table as OrdersCSV as a single-sheet workbook.
func WriteOrdersXLSX(w io.Writer, orders []domain.Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return err
	}

	headerRow := sheet.AddRow()
	for _, h := range Header {
		headerRow.AddCell().SetValue(h)
	}
	for _, o := range orders {
		r := sheet.AddRow()
		r.AddCell().SetValue(o.ID)
		r.AddCell().SetValue(o.CreatedAt.Format(dateLayout))
		r.AddCell().SetValue(o.CustomerName)
		r.AddCell().SetValue(o.CustomerPhone)
		r.AddCell().SetValue(o.CustomerCity)
		r.AddCell().SetInt(o.Quantity)
		total, _ := o.Total().Float64()
		r.AddCell().SetFloat(total)
		r.AddCell().SetValue(string(o.Status))
	}
	return file.Write(w)
}
