package ingest

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeDOCX(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.docx")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create(docxBody)
	if err != nil {
		t.Fatalf("zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("file close: %v", err)
	}
	return path
}

func TestExtractText_Plain(t *testing.T) {
	path := writeFile(t, "resume.txt", []byte("  Jane Doe \n\n Go developer\n"))

	got, err := ExtractText(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != "Jane Doe\nGo developer" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractText_DOCX(t *testing.T) {
	path := writeDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Senior Engineer</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Built services in </w:t></w:r><w:r><w:t>Golang and Redis</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	got, err := ExtractText(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := "Senior Engineer\nBuilt services in Golang and Redis"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExtractText_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want error
	}{
		{
			name: "unsupported extension",
			path: func(t *testing.T) string { return writeFile(t, "resume.odt", []byte("x")) },
			want: ErrUnsupportedFormat,
		},
		{
			name: "empty text file",
			path: func(t *testing.T) string { return writeFile(t, "resume.txt", []byte(" \n\t\n")) },
			want: ErrEmptyDocument,
		},
		{
			name: "invalid utf-8",
			path: func(t *testing.T) string { return writeFile(t, "resume.txt", []byte{0xff, 0xfe, 0xfd}) },
			want: ErrUnreadable,
		},
		{
			name: "garbage pdf",
			path: func(t *testing.T) string { return writeFile(t, "resume.pdf", []byte("not a pdf at all")) },
			want: ErrUnreadable,
		},
		{
			name: "docx that is not a zip",
			path: func(t *testing.T) string { return writeFile(t, "resume.docx", []byte("plain bytes")) },
			want: ErrUnreadable,
		},
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.txt") },
			want: ErrUnreadable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractText(context.Background(), tt.path(t))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestExtractText_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := writeFile(t, "resume.txt", []byte("hello"))
	if _, err := ExtractText(ctx, path); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExtractInfo(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "aliases collapse and order follows first appearance",
			text: "Worked with Postgres, golang and Docker. Later moved services from PostgreSQL to Go.",
			want: []string{"PostgreSQL", "Go", "Docker"},
		},
		{
			name: "punctuated names survive tokenizing",
			text: "Stack: C++, C#, Node.js, .NET and CI/CD pipelines.",
			want: []string{"C++", "C#", "Node.js", ".NET", "CI/CD"},
		},
		{
			name: "longest phrase wins",
			text: "Spring Boot APIs; machine learning with PyTorch",
			want: []string{"Spring Boot", "Machine Learning", "PyTorch"},
		},
		{
			name: "everyday go is not a skill",
			text: "Happy to go the extra mile for the team. Skilled in Python.",
			want: []string{"Python"},
		},
		{
			name: "sentence-initial Go needs context",
			text: "Go ahead and ask. Go developer since 2019.",
			want: []string{"Go"},
		},
		{
			name: "lowercase transcript next to another skill",
			text: "i mostly write go and python these days",
			want: []string{"Go", "Python"},
		},
		{
			name: "capitalized mid-sentence counts",
			text: "Rewrote the billing system in Go last year",
			want: []string{"Go"},
		},
		{
			name: "other ambiguous words",
			text: "We had to react fast when the spring release slipped.",
			want: []string{},
		},
		{
			name: "sparse input gives empty slice",
			text: "I like long walks.",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractInfo(tt.text).Skills
			if got == nil {
				t.Fatalf("skills must never be nil")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenize_MarksSentenceStarts(t *testing.T) {
	toks := tokenize("Built APIs. Go services\nRust: tooling")

	var starts []string
	for _, tok := range toks {
		if tok.start {
			starts = append(starts, tok.raw)
		}
	}
	if !reflect.DeepEqual(starts, []string{"Built", "Go", "Rust", "tooling"}) {
		t.Fatalf("sentence starts = %v", starts)
	}
	if toks[1].text != "apis" || toks[1].raw != "APIs" {
		t.Fatalf("token should keep raw and lowered forms, got %+v", toks[1])
	}
}

func TestSupported(t *testing.T) {
	for name, want := range map[string]bool{
		"cv.PDF":  true,
		"cv.docx": true,
		"cv.txt":  true,
		"cv.doc":  false,
		"cv":      false,
	} {
		if got := Supported(name); got != want {
			t.Fatalf("Supported(%q) = %v, want %v", name, got, want)
		}
	}
}
