// pumldl downloads a single URL to a file, refusing to overwrite an existing one.
package main

import (
	"oss.terrastruct.com/pumldoc/lib/xmain"
	"oss.terrastruct.com/pumldoc/pumlcli"
)

func main() {
	xmain.Main(pumlcli.Download)
}
