package document

import (
	"errors"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/reoring/refbundle/diag"
)

func TestParseYAML_DuplicateKey_Root(t *testing.T) {
	_, err := parseYAML("a.yaml", []byte("kind: A\nkind: B\n"))
	if err == nil {
		t.Fatalf("expected duplicate key error")
	}
	var de *DuplicateKeyError
	if !errors.As(err, &de) {
		t.Fatalf("expected DuplicateKeyError, got %T %v", err, err)
	}
	if de.Key != "kind" {
		t.Fatalf("expected key=kind, got %q", de.Key)
	}
	if de.FirstLine != 1 || de.Line != 2 {
		t.Fatalf("expected lines 1 and 2, got first=%d dup=%d", de.FirstLine, de.Line)
	}
	if !errors.Is(err, diag.ErrDocumentParse) {
		t.Fatalf("expected document_parse_error, got %v", err)
	}
	var pe *diag.Error
	if !errors.As(err, &pe) || pe.Line != 2 || pe.Doc != "a.yaml" {
		t.Fatalf("expected located parse error, got %#v", pe)
	}
}

func TestParseYAML_DuplicateKey_Nested(t *testing.T) {
	_, err := parseYAML("a.yaml", []byte("defs:\n  Name: {}\n  Name: {}\n"))
	var de *DuplicateKeyError
	if !errors.As(err, &de) {
		t.Fatalf("expected DuplicateKeyError, got %T %v", err, err)
	}
	if de.Key != "Name" {
		t.Fatalf("expected key=Name, got %q", de.Key)
	}
}

func TestParseYAML_SyntaxErrorCarriesLine(t *testing.T) {
	_, err := parseYAML("bad.yaml", []byte("a: 1\nb: [1, 2\nc: 3\n"))
	var pe *diag.Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected *diag.Error, got %T %v", err, err)
	}
	if pe.Code != diag.CodeDocumentParse {
		t.Fatalf("expected parse code, got %s", pe.Code)
	}
	if pe.Line == 0 {
		t.Fatalf("expected a line number in %v", err)
	}
}

func TestParseYAML_Empty(t *testing.T) {
	if _, err := parseYAML("e.yaml", nil); !errors.Is(err, diag.ErrDocumentParse) {
		t.Fatalf("expected parse error for empty input, got %v", err)
	}
}

func TestParseYAML_FirstDocumentOfStream(t *testing.T) {
	n, err := parseYAML("m.yaml", []byte("kind: A\n---\nkind: B\n"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n.Kind != yaml.MappingNode {
		t.Fatalf("expected mapping content node, got kind %d", n.Kind)
	}
	if v := MappingValue(n, "kind"); v == nil || v.Value != "A" {
		t.Fatalf("expected first document, got %v", v)
	}
}
