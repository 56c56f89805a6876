package reporting

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"gld-feature-lab/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func testTable(t *testing.T) *domain.Table {
	t.Helper()
	tbl, err := domain.NewTable(
		[]time.Time{day(2), day(3), day(4)},
		domain.Column{Name: "GLD_CLOSE", Frequency: domain.FrequencyDaily, Values: []*float64{domain.Float(190.5), domain.Float(191.25), domain.Float(189)}},
		domain.Column{Name: "CPIAUCSL", Frequency: domain.FrequencyMonthly, Values: []*float64{nil, domain.Float(310.326), domain.Float(310.326)}},
		domain.Column{Name: "MOMENTUM_1", Values: []*float64{nil, domain.Float(0.1 + 0.2), domain.Float(-1e-7)}},
	)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func TestRenderTableCSV(t *testing.T) {
	got, err := RenderTableCSV(testTable(t))
	if err != nil {
		t.Fatalf("RenderTableCSV: %v", err)
	}

	want := "date,GLD_CLOSE,CPIAUCSL,MOMENTUM_1\n" +
		"2024-01-02,190.5,,\n" +
		"2024-01-03,191.25,310.326,0.30000000000000004\n" +
		"2024-01-04,189,310.326,-0.0000001\n"
	if string(got) != want {
		t.Errorf("csv mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderTableCSV_Deterministic(t *testing.T) {
	a, err := RenderTableCSV(testTable(t))
	if err != nil {
		t.Fatalf("RenderTableCSV: %v", err)
	}
	b, err := RenderTableCSV(testTable(t))
	if err != nil {
		t.Fatalf("RenderTableCSV: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical tables rendered differently")
	}
}

func TestParseTableCSV_RoundTrip(t *testing.T) {
	src := testTable(t)
	data, err := RenderTableCSV(src)
	if err != nil {
		t.Fatalf("RenderTableCSV: %v", err)
	}

	parsed, err := ParseTableCSV(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseTableCSV: %v", err)
	}

	again, err := RenderTableCSV(parsed)
	if err != nil {
		t.Fatalf("RenderTableCSV: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Errorf("round trip changed bytes\nfirst:\n%s\nsecond:\n%s", data, again)
	}
	if parsed.Value(0, "CPIAUCSL") != nil {
		t.Error("empty cell should parse as null")
	}
}

func TestParseTableCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no date column", "GLD_CLOSE\n1\n"},
		{"bad date", "date,a\n2024/01/02,1\n"},
		{"bad value", "date,a\n2024-01-02,abc\n"},
		{"unsorted dates", "date,a\n2024-01-03,1\n2024-01-02,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTableCSV(strings.NewReader(tt.input)); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestRenderArticlesCSV(t *testing.T) {
	author := "Jane Doe"
	content := "Gold rose, again; \"record\" highs"
	articles := []*domain.Article{
		{
			Source:      "Reuters",
			Author:      &author,
			Title:       "Gold hits record",
			URL:         "https://example.com/a",
			PublishedAt: "2024-01-02T10:00:00Z",
			Date:        "2024-01-02",
			Content:     &content,
		},
	}

	var buf bytes.Buffer
	if err := RenderArticlesCSV(&buf, articles); err != nil {
		t.Fatalf("RenderArticlesCSV: %v", err)
	}

	lines := strings.SplitN(buf.String(), "\n", 2)
	if lines[0] != "date,source,author,title,description,url,publishedAt,content" {
		t.Errorf("header = %q", lines[0])
	}
	wantRow := `2024-01-02,Reuters,Jane Doe,Gold hits record,,https://example.com/a,2024-01-02T10:00:00Z,"Gold rose, again; ""record"" highs"` + "\n"
	if lines[1] != wantRow {
		t.Errorf("row = %q, want %q", lines[1], wantRow)
	}
}
