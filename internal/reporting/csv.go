package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"gld-feature-lab/internal/domain"
)

// DateHeader is the name of the first column of every table CSV.
const DateHeader = "date"

// RenderTableCSV renders an aligned table as CSV: a date column, then every column
// in table order. Nulls are empty cells and floats use the shortest exact form,
// so equal tables always render to equal bytes.
func RenderTableCSV(t *domain.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	names := t.ColumnNames()
	header := append([]string{DateHeader}, names...)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	cols := t.Columns()
	record := make([]string, len(header))
	for i := 0; i < t.Len(); i++ {
		record[0] = t.Date(i).Format(domain.DateLayout)
		for j, c := range cols {
			record[j+1] = FormatValue(c.Values[i])
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("render table csv: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatValue formats a cell: empty for null, strconv 'f' -1 otherwise.
func FormatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ParseTableCSV reads a CSV written by RenderTableCSV. Column frequencies are not
// part of the file, so every parsed column is untagged.
func ParseTableCSV(r io.Reader) (*domain.Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read table csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read table csv: missing header")
	}

	header := records[0]
	if len(header) == 0 || header[0] != DateHeader {
		return nil, fmt.Errorf("read table csv: first column must be %q", DateHeader)
	}

	rows := records[1:]
	dates := make([]time.Time, len(rows))
	cols := make([]domain.Column, len(header)-1)
	for j := range cols {
		cols[j] = domain.Column{Name: header[j+1], Values: make([]*float64, len(rows))}
	}

	for i, rec := range rows {
		d, err := domain.ParseDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		dates[i] = d
		for j := range cols {
			if rec[j+1] == "" {
				continue
			}
			v, err := strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+2, cols[j].Name, err)
			}
			cols[j].Values[i] = &v
		}
	}

	return domain.NewTable(dates, cols...)
}

// ArticleHeader is the column order of the news CSV: date first.
var ArticleHeader = []string{"date", "source", "author", "title", "description", "url", "publishedAt", "content"}

// RenderArticlesCSV writes articles as CSV in the given order.
func RenderArticlesCSV(w io.Writer, articles []*domain.Article) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ArticleHeader); err != nil {
		return err
	}
	for _, a := range articles {
		if err := cw.Write([]string{
			a.Date,
			a.Source,
			deref(a.Author),
			a.Title,
			deref(a.Description),
			a.URL,
			a.PublishedAt,
			deref(a.Content),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
