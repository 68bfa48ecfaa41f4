package pumlcli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"cdr.dev/slog"
	"github.com/spf13/pflag"

	"oss.terrastruct.com/xdefer"

	"oss.terrastruct.com/pumldoc/lib/log"
	"oss.terrastruct.com/pumldoc/lib/version"
	"oss.terrastruct.com/pumldoc/lib/xhttp"
	"oss.terrastruct.com/pumldoc/lib/xmain"
	"oss.terrastruct.com/pumldoc/pumlmd"
	"oss.terrastruct.com/pumldoc/pumlrender"
)

func Run(ctx context.Context, ms *xmain.State) (err error) {
	ctx = log.WithDefault(ctx)

	// get has its own flags.
	if len(ms.Opts.Args) > 0 && ms.Opts.Args[0] == "get" {
		ms.Opts = xmain.NewOpts(ms.Env, ms.Log, ms.Opts.Args[1:])
		return Download(ctx, ms)
	}

	// These should be kept up-to-date with help.
	rootFlag := ms.Opts.String("PUMLDOC_ROOT", "root", "r", pumlrender.DefaultRoot, "documentation output directory. Diagrams are cached under <root>/images/puml_files.")
	serverFlag := ms.Opts.String("PUMLDOC_SERVER", "server", "", pumlrender.DefaultServer, "PlantUML server base URL.")
	timeoutFlag, err := ms.Opts.Duration("PUMLDOC_TIMEOUT", "timeout", "", xhttp.DefaultTimeout, "time allowed for each of connecting, writing the request and every read of the response. A bare number is seconds.")
	if err != nil {
		return err
	}
	watchFlag, err := ms.Opts.Bool("PUMLDOC_WATCH", "watch", "w", false, "watch for changes to input and re-render.")
	if err != nil {
		return err
	}
	debugFlag, err := ms.Opts.Bool("DEBUG", "debug", "d", false, "print debug logs.")
	if err != nil {
		return err
	}
	versionFlag, err := ms.Opts.Bool("", "version", "v", false, "get the version")
	if err != nil {
		return err
	}

	err = ms.Opts.Flags.Parse(ms.Opts.Args)
	if !errors.Is(err, pflag.ErrHelp) && err != nil {
		return xmain.UsageErrorf("failed to parse flags: %v", err)
	}
	if errors.Is(err, pflag.ErrHelp) {
		help(ms)
		return nil
	}

	if *debugFlag {
		ms.Env.Setenv("DEBUG", "1")
		ctx = log.Leveled(ctx, slog.LevelDebug)
	}

	timeout := *timeoutFlag
	r := pumlrender.New(&pumlrender.Opts{
		Root:   *rootFlag,
		Server: *serverFlag,
		Fetcher: &xhttp.Fetcher{
			ConnectTimeout: timeout,
			ReadTimeout:    timeout,
			WriteTimeout:   timeout,
		},
	})

	args := ms.Opts.Flags.Args()
	if len(args) > 0 {
		switch args[0] {
		case "url":
			return urlCmd(ctx, ms, r)
		case "play":
			return playCmd(ctx, ms, r)
		case "version":
			if len(args) > 1 {
				return xmain.UsageErrorf("version subcommand accepts no arguments")
			}
			fmt.Fprintln(ms.Stdout, version.Version)
			return nil
		}
	}

	if len(args) == 0 {
		if *versionFlag {
			fmt.Fprintln(ms.Stdout, version.Version)
			return nil
		}
		help(ms)
		return nil
	} else if len(args) >= 3 {
		return xmain.UsageErrorf("too many arguments passed")
	}

	inputPath := args[0]
	outputPath := "-"
	if len(args) >= 2 {
		outputPath = args[1]
	}
	if inputPath != "-" {
		inputPath = ms.AbsPath(inputPath)
	}
	if outputPath != "-" {
		outputPath = ms.AbsPath(outputPath)
	}

	if _, err := inputKind(inputPath); err != nil {
		return err
	}
	ms.Log.Debug.Printf("caching diagrams under %s", r.Cache().Root)

	if *watchFlag {
		if inputPath == "-" {
			return xmain.UsageErrorf("-w[atch] cannot be combined with reading input from stdin")
		}
		if outputPath == "-" {
			return xmain.UsageErrorf("-w[atch] requires an output path")
		}
		w, err := newWatcher(ctx, ms, r, inputPath, outputPath)
		if err != nil {
			return err
		}
		return w.run()
	}

	err = compile(ctx, ms, r, inputPath, outputPath)
	if err != nil {
		return err
	}
	if outputPath != "-" {
		ms.Log.Success.Printf("successfully rendered %v to %v", inputPath, outputPath)
	}
	return nil
}

type kind int

const (
	kindDiagram kind = iota
	kindMarkdown
)

var diagramExts = []string{".puml", ".plantuml", ".pu", ".iuml", ".txt"}

func inputKind(fp string) (kind, error) {
	if fp == "-" {
		return kindMarkdown, nil
	}
	ext := strings.ToLower(filepath.Ext(fp))
	switch ext {
	case ".md", ".markdown":
		return kindMarkdown, nil
	}
	for _, e := range diagramExts {
		if ext == e {
			return kindDiagram, nil
		}
	}
	return 0, xmain.UsageErrorf("unsupported input %q: expected markdown (.md) or a plantuml source (%s)", fp, strings.Join(diagramExts, ", "))
}

func compile(ctx context.Context, ms *xmain.State, r *pumlrender.Renderer, inputPath, outputPath string) (err error) {
	defer xdefer.Errorf(&err, "failed to render %s", inputPath)

	k, err := inputKind(inputPath)
	if err != nil {
		return err
	}

	input, err := ms.ReadPath(inputPath)
	if err != nil {
		return err
	}

	var out []byte
	switch k {
	case kindMarkdown:
		out, err = pumlmd.Rewrite(ctx, r, input)
		if err != nil {
			return err
		}
		if strings.EqualFold(filepath.Ext(outputPath), ".html") {
			out, err = pumlmd.ToHTML(out)
			if err != nil {
				return err
			}
		}
	case kindDiagram:
		var frag string
		frag, err = r.Render(ctx, string(input))
		if err != nil {
			return err
		}
		out = []byte(frag)
	}

	return ms.WritePath(outputPath, out)
}
