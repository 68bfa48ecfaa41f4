package pumlcli

import (
	"context"
	"fmt"
	"strings"

	"oss.terrastruct.com/pumldoc/lib/urlenc"
	"oss.terrastruct.com/pumldoc/lib/xbrowser"
	"oss.terrastruct.com/pumldoc/lib/xmain"
	"oss.terrastruct.com/pumldoc/pumlrender"
)

func urlCmd(ctx context.Context, ms *xmain.State, r *pumlrender.Renderer) error {
	src, err := readSource(ms, "url")
	if err != nil {
		return err
	}
	u, err := r.URL(src)
	if err != nil {
		return err
	}
	fmt.Fprintln(ms.Stdout, u)
	return nil
}

func playCmd(ctx context.Context, ms *xmain.State, r *pumlrender.Renderer) error {
	src, err := readSource(ms, "play")
	if err != nil {
		return err
	}
	encoded, err := urlenc.Encode(src)
	if err != nil {
		return err
	}

	server, err := ms.Opts.Flags.GetString("server")
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/uml/%s", strings.TrimSuffix(server, "/"), encoded)
	ms.Log.Info.Printf("opening plantuml editor: %s", u)

	err = xbrowser.OpenURL(ctx, ms.Env, u)
	if err != nil {
		ms.Log.Warn.Printf("failed to open browser to %v: %v", u, err)
	}
	return nil
}

func readSource(ms *xmain.State, cmd string) (string, error) {
	args := ms.Opts.Flags.Args()
	if len(args) != 2 {
		return "", xmain.UsageErrorf("%s must be passed one argument: either a filepath or '-' for stdin", cmd)
	}
	fp := args[1]
	if fp != "-" {
		fp = ms.AbsPath(fp)
	}
	b, err := ms.ReadPath(fp)
	if err != nil {
		return "", xmain.UsageErrorf("%s", err.Error())
	}
	return string(b), nil
}
