package llm

import (
	"context"
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"code block", "Here you go:\n```json\n{\"a\":1}\n```\nthanks", `{"a":1}`},
		{"prose around", `Sure. {"a": "b"} Done.`, `{"a": "b"}`},
		{"trailing comma", "{\"a\":[1,2,],}", `{"a":[1,2]}`},
		{"line comment", "{\n\"iri\": \"http://x.org/a\", // the iri\n\"n\": 1\n}", "{\n\"iri\": \"http://x.org/a\",\n\"n\": 1\n}"},
		{"none", "no json here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.content); got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeJSONMalformed(t *testing.T) {
	var v struct{ A int }
	if err := DecodeJSON("nothing", &v); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("err = %v, want ErrMalformedResponse", err)
	}
	if err := DecodeJSON(`{"A": "x"}`, &v); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("err = %v, want ErrMalformedResponse", err)
	}
}

type staticCompleter struct {
	reply string
	err   error
}

func (s staticCompleter) Complete(context.Context, []Message) (string, error) { return s.reply, s.err }
func (s staticCompleter) Model() string                                      { return "static" }

func TestCompleteJSON(t *testing.T) {
	var v struct {
		Success bool `json:"success"`
	}
	if err := CompleteJSON(context.Background(), staticCompleter{reply: "```\n{\"success\": true}\n```"}, nil, &v); err != nil {
		t.Fatal(err)
	}
	if !v.Success {
		t.Error("expected success")
	}

	boom := errors.New("boom")
	if err := CompleteJSON(context.Background(), staticCompleter{err: boom}, nil, &v); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}
