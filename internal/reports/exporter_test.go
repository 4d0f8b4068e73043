package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestSortRows(t *testing.T) {
	rows := []Row{
		{ID: "b", FirstName: "Ana", LastName: "cruz"},
		{ID: "a", FirstName: "Ana", LastName: "Cruz"},
		{ID: "c", FirstName: "Ben", LastName: "Abad"},
	}

	SortRows(rows)

	if rows[0].LastName != "Abad" {
		t.Fatalf("expected Abad first, got %q", rows[0].LastName)
	}
	// same surname and name, case-insensitively; id breaks the tie
	if rows[1].ID != "a" || rows[2].ID != "b" {
		t.Fatalf("tie-break order = %s, %s", rows[1].ID, rows[2].ID)
	}
}

func TestFilename(t *testing.T) {
	at := time.Date(2025, 7, 20, 9, 30, 0, 0, time.UTC)

	got := Filename("Surigao City Run", at)
	if got != "Surigao_City_Run_runners_2025-07-20_09-30.xlsx" {
		t.Fatalf("got %q", got)
	}

	got = Filename("", at)
	if got != "all_events_runners_2025-07-20_09-30.xlsx" {
		t.Fatalf("got %q", got)
	}
}

func TestBuildWorkbook(t *testing.T) {
	verified := true

	x := Export{
		Criteria: Criteria{Verified: &verified},
		Rows: []Row{
			{ID: "r2", FirstName: "Maria", LastName: "Santos", Email: "maria@example.com", DistanceLabel: "10 KM", Age: 28, Gender: "Female", ShirtSize: "S"},
			{ID: "r1", FirstName: "Jose", LastName: "Abad", Email: "jose@example.com", DistanceLabel: "5 KM", Age: 41, Gender: "Male", ShirtSize: "L"},
		},
		GeneratedAt: time.Now(),
	}

	b, err := BuildWorkbook(x)
	if err != nil {
		t.Fatalf("BuildWorkbook error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	summary, err := f.GetCellValue("Runners", "A2")
	if err != nil {
		t.Fatalf("read summary cell: %v", err)
	}
	if summary != "Filters – Verified: Yes" {
		t.Fatalf("summary cell = %q", summary)
	}

	header, _ := f.GetCellValue("Runners", "A4")
	if header != "Name" {
		t.Fatalf("header cell = %q", header)
	}

	// rows are sorted by surname before writing
	first, _ := f.GetCellValue("Runners", "A5")
	if first != "Abad, Jose" {
		t.Fatalf("first data row = %q", first)
	}
	email, _ := f.GetCellValue("Runners", "B6")
	if email != "maria@example.com" {
		t.Fatalf("second row email = %q", email)
	}
}
