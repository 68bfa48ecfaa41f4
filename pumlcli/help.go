package pumlcli

import (
	"fmt"
	"path/filepath"

	"oss.terrastruct.com/pumldoc/lib/version"
	"oss.terrastruct.com/pumldoc/lib/xmain"
)

func help(ms *xmain.State) {
	fmt.Fprintf(ms.Stdout, `%[1]s %[2]s
Usage:
  %[1]s [--watch=false] [--root=target/doc] file.md [file.md | file.html]
  %[1]s [--root=target/doc] file.puml [fragment.html]
  %[1]s url file.puml
  %[1]s play file.puml
  %[1]s get [-o file.png] URL

%[1]s renders the plantuml code blocks of file.md into images cached under
<root>/images/puml_files and replaces each block with an image tag. If the PlantUML
server can't be reached, the block is replaced with markup that renders the diagram
in the browser instead.

A single plantuml source renders to its image tag alone.
Use - to have %[1]s read markdown from stdin. Output defaults to stdout.

Flags:
%[3]s

Subcommands:
  %[1]s url file.puml - Print the PNG URL of file.puml on the PlantUML server
  %[1]s play file.puml - Open file.puml in the PlantUML web editor
  %[1]s get URL - Download URL to a file without overwriting anything
`, filepath.Base(ms.Name), version.Version, ms.Opts.Help())
}

func getHelp(ms *xmain.State) {
	fmt.Fprintf(ms.Stdout, `Usage:
  %[1]s [-o output] URL

%[1]s downloads URL. The output file defaults to the last element of the URL path
and is never overwritten.

Flags:
%[2]s
`, filepath.Base(ms.Name), ms.Opts.Help())
}
