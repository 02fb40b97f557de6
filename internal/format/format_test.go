package format

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONFormatter{}).Write(&buf, map[string]string{"title": "<b>"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "{\"title\":\"<b>\"}\n" {
		t.Fatalf("unexpected json %q", got)
	}

	buf.Reset()
	if err := (JSONFormatter{Indent: true}).Write(&buf, map[string]int{"id": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"id\": 1\n") {
		t.Fatalf("expected indented json, got %q", buf.String())
	}
}

func TestTableAlignsColumns(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	table := Table{Header: []string{"id", "title"}}
	table.Append(1, "standup")
	table.Append(12, "retro")

	var buf bytes.Buffer
	if err := table.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "ID  TITLE\n1   standup\n12  retro\n"
	if buf.String() != want {
		t.Fatalf("unexpected table:\n%q\nwant\n%q", buf.String(), want)
	}
}
