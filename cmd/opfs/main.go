// Command opfs manipulates an existing xv6 file system image: inspecting
// it and moving files in and out of it.
//
// usage: opfs [-d] img_file command [arg...]
//
// Commands are:
//
//	diskinfo
//	info path
//	ls path
//	get path
//	put path
//	rm path
//	cp spath dpath
//	mv spath dpath
//	ln spath dpath
//	mkdir path
//	rmdir path
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/xv6tools/xv6fs"
	"github.com/xv6tools/xv6fs/internal/mmapfile"
)

type cmdEntry struct {
	args int // exact arg count required, or -1 if variable (checked by the handler itself)
	run  func(im *xv6fs.Image, args []string) error
}

var commands = map[string]cmdEntry{
	"diskinfo": {0, func(im *xv6fs.Image, args []string) error { return im.DiskInfo(os.Stdout) }},
	"info":     {1, func(im *xv6fs.Image, args []string) error { return im.Info(os.Stdout, args[0]) }},
	"ls":       {1, func(im *xv6fs.Image, args []string) error { return im.Ls(os.Stdout, args[0]) }},
	"get":      {1, func(im *xv6fs.Image, args []string) error { return im.Get(os.Stdout, args[0]) }},
	"put":      {1, func(im *xv6fs.Image, args []string) error { return im.Put(args[0], os.Stdin) }},
	"rm":       {1, func(im *xv6fs.Image, args []string) error { return im.Rm(args[0]) }},
	"cp":       {2, func(im *xv6fs.Image, args []string) error { return im.Cp(args[0], args[1]) }},
	"mv":       {2, func(im *xv6fs.Image, args []string) error { return im.Mv(args[0], args[1]) }},
	"ln":       {2, func(im *xv6fs.Image, args []string) error { return im.Ln(args[0], args[1]) }},
	"mkdir":    {1, func(im *xv6fs.Image, args []string) error { return im.Mkdir(args[0]) }},
	"rmdir":    {1, func(im *xv6fs.Image, args []string) error { return im.Rmdir(args[0]) }},
}

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	prog := progname(args)
	args = args[1:]
	if len(args) > 0 && args[0] == "-d" {
		xv6fs.SetDebug(os.Stderr)
		args = args[1:]
	}
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [-d] img_file command [arg...]\n", prog)
		return 1
	}
	file := args[0]
	cmd := args[1]
	rest := args[2:]

	ent, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "opfs: unknown command: %s\n", cmd)
		return 1
	}
	if ent.args >= 0 && len(rest) != ent.args {
		fmt.Fprintf(os.Stderr, "opfs: %s: wrong number of arguments\n", cmd)
		return 1
	}

	m, err := mmapfile.Open(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer m.Close()

	im := xv6fs.NewImage(m.Bytes())
	if !im.Superblock().Valid() {
		fmt.Fprintln(os.Stderr, "opfs: not a valid xv6 file system image")
		return 1
	}

	if err := ent.run(im, rest); err != nil {
		return fatalExit(cmd, err)
	}
	return 0
}

func fatalExit(cmd string, err error) int {
	var fe *xv6fs.FatalError
	if errors.As(err, &fe) {
		fmt.Fprintln(os.Stderr, fe.Error())
		return 2
	}
	fmt.Fprintf(os.Stderr, "opfs: %s: %s\n", cmd, err)
	return 1
}

func progname(args []string) string {
	if len(args) == 0 {
		return "opfs"
	}
	return args[0]
}
