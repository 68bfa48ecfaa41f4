package pumlrender

import (
	"strings"
)

// Fallback returns markup that renders src in the reader's browser. The page loads the
// PlantUML encoder script, deflates and encodes src client side and points an image at
// the public server. src is embedded verbatim inside a function comment whose text is
// recovered with Function.prototype.toString.
func Fallback(src string) string {
	var b strings.Builder
	b.WriteString(`<base href="https://www.plantuml.com" />
<img id = "theimg" />
<script src="https://plantuml.com/synchro2.min.js"></script>
<script>
function compress(s) {
//UTF8
s = unescape(encodeURIComponent(s));
var arr = [];
for (var i = 0; i < s.length; i++)
arr.push(s.charCodeAt(i));
var compressed = new Zopfli.RawDeflate(arr).compress();
document.getElementById('theimg').src = "//www.plantuml.com/plantuml/png/" + encode64_(compressed);
}
let result = (function() {/*
`)
	b.WriteString(src)
	b.WriteString(`*/}).toString().split('\n').slice(1,-1).join('\n');
window.onload = compress(result);
</script>
`)
	return b.String()
}
