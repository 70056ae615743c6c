package format

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	ID       int    `json:"id"`
	ImageURL string `json:"image_url,omitempty"`
	Tags     []string
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sample{ID: 7}, "", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := buf.String(); got != "{\"id\":7,\"Tags\":null}\n" {
		t.Fatalf("unexpected json %q", got)
	}

	buf.Reset()
	if err := Write(&buf, map[string]int{"a": 1}, "json", true); err != nil {
		t.Fatalf("Write(pretty): %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"a\": 1\n") {
		t.Fatalf("expected indented json, got %q", buf.String())
	}
}

func TestWrite_YAMLUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	v := sample{ID: 3, ImageURL: "http://x/images/a", Tags: []string{"Emotion", "CLIP"}}
	if err := Write(&buf, v, "yaml", false); err != nil {
		t.Fatalf("Write(yaml): %v", err)
	}
	out := buf.String()
	for _, want := range []string{"id: 3\n", "image_url: http://x/images/a\n", "Tags:\n", "- Emotion\n", "- CLIP\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in yaml output:\n%s", want, out)
		}
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, 1, "edn", false); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
