package main

import (
	"oss.terrastruct.com/pumldoc/lib/xmain"
	"oss.terrastruct.com/pumldoc/pumlcli"
)

func main() {
	xmain.Main(pumlcli.Run)
}
