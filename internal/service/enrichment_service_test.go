package service

import (
	"testing"
)

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "plain title",
			html: `<html><head><title>Go Documentation</title></head><body></body></html>`,
			want: "Go Documentation",
		},
		{
			name: "title with attributes",
			html: `<head><title data-rh="true">Attributed</title></head>`,
			want: "Attributed",
		},
		{
			name: "entities unescaped",
			html: `<title>Tips &amp; Tricks &mdash; Go</title>`,
			want: "Tips & Tricks — Go",
		},
		{
			name: "whitespace collapsed",
			html: "<title>\n  Spread\n  Out\n</title>",
			want: "Spread Out",
		},
		{
			name: "case insensitive tag",
			html: `<TITLE>Shouting</TITLE>`,
			want: "Shouting",
		},
		{
			name: "first title wins",
			html: `<title>First</title><title>Second</title>`,
			want: "First",
		},
		{
			name: "no title element",
			html: `<html><body><h1>Heading only</h1></body></html>`,
			want: "",
		},
		{
			name: "empty title",
			html: `<title></title>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTitle(tt.html)
			if got != tt.want {
				t.Errorf("ExtractTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}
