// Command modfs reads or overwrites individual on-disk fields of an xv6
// file system image, bypassing every invariant opfs enforces. It is the
// tool for deliberately building corrupt images to exercise recovery and
// checking code against.
//
// usage: modfs [-d] img_file command [arg...]
//
// Commands are:
//
//	superblock.size|nblocks|ninodes|nlog|logstart|inodestart|bmapstart [val]
//	bitmap bnum [val]
//	inode.type|nlink|size|indirect inum [val]
//	inode.addrs inum n [val]
//	dirent path name [val|delete]
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xv6tools/xv6fs"
	"github.com/xv6tools/xv6fs/internal/mmapfile"
)

var superblockFields = map[string]bool{
	"size": true, "nblocks": true, "ninodes": true, "nlog": true,
	"logstart": true, "inodestart": true, "bmapstart": true,
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

	m, err := mmapfile.Open(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer m.Close()

	im := xv6fs.NewImage(m.Bytes())

	if field, ok := strings.CutPrefix(cmd, "superblock."); ok && superblockFields[field] {
		return doSuperblock(im, field, rest)
	}
	if field, ok := strings.CutPrefix(cmd, "inode."); ok {
		switch field {
		case "type", "nlink", "size", "indirect":
			return doInodeField(im, field, rest)
		case "addrs":
			return doInodeAddrs(im, rest)
		}
	}
	if cmd == "bitmap" {
		return doBitmap(im, rest)
	}
	if cmd == "dirent" {
		return doDirent(im, rest)
	}
	fmt.Fprintf(os.Stderr, "modfs: unknown command: %s\n", cmd)
	return 1
}

func doSuperblock(im *xv6fs.Image, field string, args []string) int {
	if len(args) == 0 {
		v, _ := im.SuperblockField(field)
		fmt.Println(v)
		return 0
	}
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "modfs: usage: superblock.%s [val]\n", field)
		return 1
	}
	v, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		fmt.Fprintln(os.Stderr, "modfs: value must be an integer")
		return 1
	}
	im.SetSuperblockField(field, uint32(v))
	return 0
}

func doBitmap(im *xv6fs.Image, args []string) int {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(os.Stderr, "modfs: usage: bitmap bnum [val]")
		return 1
	}
	bnum, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return badArg()
	}
	if len(args) == 1 {
		v, err := im.Bitmap(uint32(bnum))
		if err != nil {
			return reportErr("bitmap", err)
		}
		if v {
			fmt.Println(1)
		} else {
			fmt.Println(0)
		}
		return 0
	}
	val, err := strconv.Atoi(args[1])
	if err != nil || (val != 0 && val != 1) {
		fmt.Fprintln(os.Stderr, "modfs: bitmap: val must be 0 or 1")
		return 1
	}
	if err := im.SetBitmap(uint32(bnum), val == 1); err != nil {
		return reportErr("bitmap", err)
	}
	return 0
}

func doInodeField(im *xv6fs.Image, field string, args []string) int {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintf(os.Stderr, "modfs: usage: inode.%s inum [val]\n", field)
		return 1
	}
	inum, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return badArg()
	}
	switch field {
	case "type":
		return inodeU16(im, uint32(inum), args[1:], im.InodeType, im.SetInodeType)
	case "nlink":
		return inodeU16(im, uint32(inum), args[1:], im.InodeNlink, im.SetInodeNlink)
	case "size":
		return inodeU32(im, uint32(inum), args[1:], im.InodeSize, im.SetInodeSize)
	case "indirect":
		return inodeU32(im, uint32(inum), args[1:], im.InodeIndirect, im.SetInodeIndirect)
	}
	return 1
}

func inodeU16(im *xv6fs.Image, inum uint32, valArg []string, get func(uint32) (uint16, error), set func(uint32, uint16) error) int {
	if len(valArg) == 0 {
		v, err := get(inum)
		if err != nil {
			return reportErr("inode", err)
		}
		fmt.Println(v)
		return 0
	}
	v, err := strconv.ParseUint(valArg[0], 10, 16)
	if err != nil {
		return badArg()
	}
	if err := set(inum, uint16(v)); err != nil {
		return reportErr("inode", err)
	}
	return 0
}

func inodeU32(im *xv6fs.Image, inum uint32, valArg []string, get func(uint32) (uint32, error), set func(uint32, uint32) error) int {
	if len(valArg) == 0 {
		v, err := get(inum)
		if err != nil {
			return reportErr("inode", err)
		}
		fmt.Println(v)
		return 0
	}
	v, err := strconv.ParseUint(valArg[0], 10, 32)
	if err != nil {
		return badArg()
	}
	if err := set(inum, uint32(v)); err != nil {
		return reportErr("inode", err)
	}
	return 0
}

func doInodeAddrs(im *xv6fs.Image, args []string) int {
	if len(args) < 2 || len(args) > 3 {
		fmt.Fprintln(os.Stderr, "modfs: usage: inode.addrs inum n [val]")
		return 1
	}
	inum, err1 := strconv.ParseUint(args[0], 10, 32)
	n, err2 := strconv.ParseUint(args[1], 10, 32)
	if err1 != nil || err2 != nil {
		return badArg()
	}
	if len(args) == 2 {
		v, err := im.InodeAddr(uint32(inum), uint32(n))
		if err != nil {
			return reportErr("inode.addrs", err)
		}
		fmt.Println(v)
		return 0
	}
	val, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		return badArg()
	}
	if err := im.SetInodeAddr(uint32(inum), uint32(n), uint32(val)); err != nil {
		return reportErr("inode.addrs", err)
	}
	return 0
}

func doDirent(im *xv6fs.Image, args []string) int {
	if len(args) < 2 || len(args) > 3 {
		fmt.Fprintln(os.Stderr, "modfs: usage: dirent path name [val]")
		return 1
	}
	path, name := args[0], args[1]
	if len(args) == 2 {
		inum, err := im.Dirent(path, name)
		if err != nil {
			return reportErr("dirent", err)
		}
		fmt.Println(inum)
		return 0
	}
	if args[2] == "delete" {
		if err := im.DeleteDirent(path, name); err != nil {
			return reportErr("dirent", err)
		}
		return 0
	}
	inum, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		return badArg()
	}
	if err := im.SetDirent(path, name, uint32(inum)); err != nil {
		return reportErr("dirent", err)
	}
	return 0
}

func badArg() int {
	fmt.Fprintln(os.Stderr, "modfs: argument must be an integer")
	return 1
}

func reportErr(cmd string, err error) int {
	fmt.Fprintf(os.Stderr, "modfs: %s: %s\n", cmd, err)
	return 1
}

func progname(args []string) string {
	if len(args) == 0 {
		return "modfs"
	}
	return args[0]
}
