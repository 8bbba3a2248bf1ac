package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello there", "Hello there"},
		{"paragraphs", "<p>First</p><p>Second</p>", "First\nSecond"},
		{"breaks", "Line one<br>Line two<br/>", "Line one\nLine two"},
		{"entities", "Tom &amp; Jerry&nbsp;LLC", "Tom & Jerry LLC"},
		{"style dropped", "<style>p{color:red}</style><div>Body</div>", "Body"},
		{"collapse", "<div>a</div>\n\n\n\n<div>b</div>", "a\n\nb"},
		{"bare less-than", "<p>Cap rate < 5% this year</p><p>Next steps below</p>", "Cap rate < 5% this year\nNext steps below"},
		{"comment with gt", "<!-- a > b --><p>Hello</p>", "Hello"},
		{"quoted gt in attribute", `<a title="x>y" href="#">Listing</a>`, "Listing"},
		{"unclosed head", "<html><head><title>Offer</title><body><p>Terms attached</p></body>", "Terms attached"},
		{"script skipped", "<p>Hi</p><script>if (a < b) { x() }</script><p>Bye</p>", "Hi\nBye"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTMLToText(tt.in))
		})
	}
}
