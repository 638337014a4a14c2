// Command newfs creates a new, empty xv6 file system image.
//
// usage: newfs [-d] img_file size ninodes nlog
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/xv6tools/xv6fs"
	"github.com/xv6tools/xv6fs/internal/mmapfile"
)

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
	if len(args) != 4 {
		fmt.Fprintf(os.Stderr, "usage: %s [-d] img_file size ninodes nlog\n", prog)
		return 1
	}
	file := args[0]
	size, err1 := strconv.ParseUint(args[1], 10, 32)
	ninodes, err2 := strconv.ParseUint(args[2], 10, 32)
	nlog, err3 := strconv.ParseUint(args[3], 10, 32)
	if err1 != nil || err2 != nil || err3 != nil {
		fmt.Fprintln(os.Stderr, "newfs: size, ninodes and nlog must be integers")
		return 1
	}

	m, err := mmapfile.Create(file, int64(size)*xv6fs.BSize)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer m.Close()

	im := xv6fs.NewImage(m.Bytes())
	report, err := xv6fs.Format(im, uint32(size), uint32(ninodes), uint32(nlog))
	if err != nil {
		return fatalExit(err)
	}
	fmt.Print(report)
	return 0
}

func fatalExit(err error) int {
	var fe *xv6fs.FatalError
	if errors.As(err, &fe) {
		fmt.Fprintln(os.Stderr, fe.Error())
		return 2
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}

func progname(args []string) string {
	if len(args) == 0 {
		return "newfs"
	}
	return args[0]
}
