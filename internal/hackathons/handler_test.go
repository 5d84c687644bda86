package hackathons

import (
	"bytes"
	"errors"
	"testing"
)

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("client went away")
}

func TestWriteCSV(t *testing.T) {
	rows := []ExportRow{
		{Name: "Ada", TelegramUsername: "ada", Role: "backend", TeamName: "Rocket"},
		{Name: "Bob, Jr.", TelegramUsername: "bob", Role: "frontend", TeamName: ""},
	}

	var buf bytes.Buffer
	if err := writeCSV(&buf, rows); err != nil {
		t.Fatalf("writeCSV: %v", err)
	}

	want := "name,telegram_username,role,team\n" +
		"Ada,ada,backend,Rocket\n" +
		"\"Bob, Jr.\",bob,frontend,\n"
	if got := buf.String(); got != want {
		t.Errorf("csv output:\n%q\nwant:\n%q", got, want)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := writeCSV(&buf, nil); err != nil {
		t.Fatalf("writeCSV: %v", err)
	}
	if got := buf.String(); got != "name,telegram_username,role,team\n" {
		t.Errorf("csv output = %q, want header only", got)
	}
}

func TestWriteCSVReportsWriterFailure(t *testing.T) {
	rows := []ExportRow{{Name: "Ada"}}
	if err := writeCSV(brokenWriter{}, rows); err == nil {
		t.Fatal("write failure not reported")
	}
}
