package report_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"whencal/internal/calfile"
	"whencal/internal/datecalc"
	"whencal/internal/model"
	"whencal/internal/report"
)

func TestNewWindow(t *testing.T) {
	w := report.NewWindow(datecalc.MustDate(2021, 1, 1), -1, 14)
	if got, want := w.String(), "2020-12-31..2021-01-15"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCollectAndWrite(t *testing.T) {
	entries, err := calfile.Read(strings.NewReader(`w=2,Weekly meeting
* Sep 20,Anniversary
2021 Sep 19,Yesterday's thing
`))
	if err != nil {
		t.Fatal(err)
	}
	today := datecalc.MustDate(2021, 9, 20)
	items := report.Collect(entries, report.NewWindow(today, -1, 9), today)

	var labels []string
	for _, it := range items {
		labels = append(labels, it.Date.String()+" "+it.Label+" "+it.Description)
	}
	want := []string{
		"2021-09-19 yesterday Yesterday's thing",
		"2021-09-20 today Anniversary",
		"2021-09-21 tomorrow Weekly meeting",
		"2021-09-28  Weekly meeting",
	}
	if got := strings.Join(labels, "\n"); got != strings.Join(want, "\n") {
		t.Errorf("got\n%v\nwant\n%v", got, strings.Join(want, "\n"))
	}

	var buf bytes.Buffer
	now := time.Date(2021, 9, 20, 8, 5, 0, 0, time.Local)
	if err := report.Write(&buf, items[:2], report.Options{Header: true, Now: now}); err != nil {
		t.Fatal(err)
	}
	expected := "Mon 2021 Sep 20 08:05\n\n" +
		"yesterday  2021 Sep 19 Yesterday's thing\n" +
		"today      2021 Sep 20 Anniversary\n"
	if got := buf.String(); got != expected {
		t.Errorf("got\n%q\nwant\n%q", got, expected)
	}
}

func TestCollectStableOrder(t *testing.T) {
	entries, _ := calfile.Read(strings.NewReader("d=1,first\nd=1,second\n"))
	today := datecalc.MustDate(2021, 3, 1)
	items := report.Collect(entries, report.NewWindow(today, 0, 0), today)
	if len(items) != 2 || items[0].Description != "first" || items[1].Description != "second" {
		t.Errorf("got %v", items)
	}
	if items[0].Label != model.LabelToday {
		t.Errorf("got %q", items[0].Label)
	}
}
