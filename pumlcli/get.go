package pumlcli

import (
	"context"
	"errors"
	"net/url"
	"path"
	"path/filepath"

	"github.com/spf13/pflag"

	"oss.terrastruct.com/pumldoc/lib/xbrowser"
	"oss.terrastruct.com/pumldoc/lib/xhttp"
	"oss.terrastruct.com/pumldoc/lib/xmain"
)

// Download is the standalone downloader. It is also reachable as pumldoc get.
func Download(ctx context.Context, ms *xmain.State) error {
	outputFlag := ms.Opts.String("", "output", "o", "", "output filename")
	openFlag, err := ms.Opts.Bool("", "open", "", false, "open the downloaded file in a browser")
	if err != nil {
		return err
	}

	err = ms.Opts.Flags.Parse(ms.Opts.Args)
	if !errors.Is(err, pflag.ErrHelp) && err != nil {
		return xmain.UsageErrorf("failed to parse flags: %v", err)
	}
	if errors.Is(err, pflag.ErrHelp) {
		getHelp(ms)
		return nil
	}

	args := ms.Opts.Flags.Args()
	if len(args) != 1 {
		return xmain.UsageErrorf("expected exactly one URL to download")
	}
	return get(ctx, ms, args[0], *outputFlag, *openFlag)
}

func get(ctx context.Context, ms *xmain.State, rawURL, outputPath string, open bool) error {
	if outputPath == "" {
		outputPath = defaultOutput(rawURL)
	}
	outputPath = ms.AbsPath(outputPath)

	err := xhttp.NewFetcher().Download(ctx, rawURL, outputPath)
	if errors.Is(err, xhttp.ErrExists) {
		return xmain.ExitErrorf(1, "output file %s already exists, aborting...", outputPath)
	}
	if err != nil {
		return err
	}
	ms.Log.Success.Printf("downloaded %s to %s", rawURL, outputPath)

	if open {
		u := (&url.URL{Scheme: "file", Path: filepath.ToSlash(outputPath)}).String()
		err = xbrowser.OpenURL(ctx, ms.Env, u)
		if err != nil {
			ms.Log.Warn.Printf("failed to open browser to %v: %v", u, err)
		}
	}
	return nil
}

func defaultOutput(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "download"
	}
	base := path.Base(u.Path)
	switch base {
	case "", ".", "/":
		return "download"
	}
	return base
}
