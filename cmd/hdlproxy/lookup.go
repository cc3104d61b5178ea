package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hdlnet/hdlproxy/handle"
	"github.com/hdlnet/hdlproxy/resolver"
	"github.com/hdlnet/hdlproxy/storage"
	"github.com/hdlnet/hdlproxy/util/svcutil"

	cli "github.com/urfave/cli/v2"
)

var resolveCmd = &cli.Command{
	Name:      "resolve",
	ArgsUsage: `<handle>`,
	Usage:     "resolve a handle against the configured repositories",
	Action:    runResolve,
}

var listHandlesCmd = &cli.Command{
	Name:      "list-handles",
	ArgsUsage: `<prefix>`,
	Usage:     "list all handles under a prefix",
	Action:    runListHandles,
}

var listPrefixesCmd = &cli.Command{
	Name:   "list-prefixes",
	Usage:  "load the prefix registry and print every prefix and its repository",
	Action: runListPrefixes,
}

var haveNACmd = &cli.Command{
	Name:      "have-na",
	ArgsUsage: `<prefix | 0.NA/prefix>`,
	Usage:     "check whether a naming authority is served by any repository",
	Action:    runHaveNA,
}

// sets up a storage with a freshly loaded registry. Logs go to stderr, so stdout only has results.
func configStorage(cctx *cli.Context) (*storage.ProxyStorage, *resolver.Resolver, error) {
	logger := svcutil.ConfigLogger(cctx, os.Stderr)
	res, err := configResolver(cctx, logger)
	if err != nil {
		return nil, nil, err
	}
	s := storage.NewProxyStorage(res, logger)
	if err := s.Init(cctx.Context); err != nil {
		return nil, nil, err
	}
	return s, res, nil
}

func printJSON(cctx *cli.Context, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, string(b))
	return nil
}

func runResolve(cctx *cli.Context) error {
	s := cctx.Args().First()
	if s == "" {
		return fmt.Errorf("need to provide handle for resolution")
	}
	h, err := handle.ParseHandle(s)
	if err != nil {
		return err
	}
	_, res, err := configStorage(cctx)
	if err != nil {
		return err
	}

	loc, err := res.ResolveLocation(cctx.Context, h)
	if err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, loc)
	return nil
}

func runListHandles(cctx *cli.Context) error {
	s := cctx.Args().First()
	if s == "" {
		return fmt.Errorf("need to provide prefix")
	}
	prefix, err := handle.ParseNAHandle(s)
	if err != nil {
		return err
	}
	store, _, err := configStorage(cctx)
	if err != nil {
		return err
	}

	handles, err := store.GetHandlesForNA(cctx.Context, string(prefix))
	if err != nil {
		return err
	}
	for _, h := range handles {
		fmt.Fprintln(cctx.App.Writer, h)
	}
	return nil
}

func runListPrefixes(cctx *cli.Context) error {
	_, res, err := configStorage(cctx)
	if err != nil {
		return err
	}
	return printJSON(cctx, res.Registry().Entries())
}

func runHaveNA(cctx *cli.Context) error {
	s := cctx.Args().First()
	if s == "" {
		return fmt.Errorf("need to provide naming authority")
	}
	store, _, err := configStorage(cctx)
	if err != nil {
		return err
	}
	ok, err := store.HaveNA(cctx.Context, s)
	if err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, ok)
	return nil
}
