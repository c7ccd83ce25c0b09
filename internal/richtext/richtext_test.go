package richtext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty editor", in: "<p><br></p>", want: ""},
		{name: "paragraphs", in: "<p>Hello <strong>world</strong></p><p>Second   line</p>", want: "Hello world\nSecond line"},
		{name: "list", in: "<ul><li>one</li><li>two</li></ul>", want: "one\ntwo"},
		{name: "entities", in: "<p>fish &amp; chips</p>", want: "fish & chips"},
		{name: "script dropped", in: "<p>ok</p><script>alert(1)</script>", want: "ok"},
		{name: "bare text", in: "just text", want: "just text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "Short post", Excerpt("<p>Short post</p>", ExcerptLength))

	long := "<p>" + strings.Repeat("word ", 60) + "</p>"
	got := Excerpt(long, ExcerptLength)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len([]rune(got)), ExcerptLength+3)

	assert.Equal(t, "héllo...", Excerpt("héllo wörld", 5))
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "allowed markup kept",
			in:   "<p>Hi <em>there</em><br></p>",
			want: "<p>Hi <em>there</em><br></p>",
		},
		{
			name: "script removed",
			in:   `<p>ok</p><script>alert("x")</script>`,
			want: "<p>ok</p>",
		},
		{
			name: "event handler stripped",
			in:   `<p onclick="steal()">text</p>`,
			want: "<p>text</p>",
		},
		{
			name: "javascript link dropped",
			in:   `<a href="javascript:alert(1)">click</a>`,
			want: `<a rel="nofollow noopener">click</a>`,
		},
		{
			name: "http link kept",
			in:   `<a href="https://example.com/a?b=1&c=2">ex</a>`,
			want: `<a href="https://example.com/a?b=1&amp;c=2" rel="nofollow noopener">ex</a>`,
		},
		{
			name: "unknown wrapper unwrapped",
			in:   `<div><p>inside</p></div>`,
			want: "<p>inside</p>",
		},
		{
			name: "image data url dropped",
			in:   `<img src="data:image/png;base64,AAAA" alt="x">`,
			want: `<img alt="x">`,
		},
		{
			name: "text escaped",
			in:   `1 &lt; 2`,
			want: `1 &lt; 2`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(Sanitize(tt.in)))
		})
	}
}
