package pumlrender

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	tassert "github.com/stretchr/testify/assert"
)

func TestFallback(t *testing.T) {
	t.Parallel()

	src := "@startuml\nAlice -> Bob: \"hi\" </script>?\n@enduml\n"
	got := Fallback(src)

	tassert.True(t, strings.Contains(got, "(function() {/*\n"+src+"*/})"))
	tassert.True(t, strings.HasPrefix(got, `<base href="https://www.plantuml.com" />`))
	tassert.True(t, strings.HasSuffix(got, "</script>\n"))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(Fallback("@startuml\nA->B\n@enduml")))
	tassert.Nil(t, err)
	tassert.Equal(t, 1, doc.Find("img#theimg").Length())
	tassert.Equal(t, 2, doc.Find("script").Length())
	scriptSrc, _ := doc.Find("script").First().Attr("src")
	tassert.Equal(t, "https://plantuml.com/synchro2.min.js", scriptSrc)
	tassert.Contains(t, doc.Find("script").Last().Text(), "Zopfli.RawDeflate")
}
