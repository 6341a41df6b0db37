// Command sfsinfo prints the header geometry and usage statistics of an
// sfs image, the debug-oriented counterpart to sfsmount.
package main

import (
	"fmt"
	"os"

	"github.com/oliverkovacs/sfs"
	"github.com/oliverkovacs/sfs/image"
)

const usage = `sfsinfo - sfs image inspector

Usage:
  sfsinfo geometry              Print fixed on-disk layout constants
  sfsinfo header <image_file>   Print the header and usage of an image
  sfsinfo help                  Show this help message
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "geometry":
		printGeometry()
	case "header":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Error: missing image file path")
			fmt.Print(usage)
			os.Exit(1)
		}
		if err := printHeader(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	case "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", os.Args[1])
		fmt.Print(usage)
		os.Exit(1)
	}
}

const mb = 1 << 20

func printGeometry() {
	fmt.Println("-------- GEOMETRY --------")
	fmt.Printf("inode size:       %4d B\n", image.InodeSize)
	fmt.Printf("block size:       %4d B\n", image.BlockSize)
	fmt.Printf("inodes/block:     %4d\n", image.InodesPerBlock)
	fmt.Printf("ptrs/block:       %4d\n\n", image.PtrsPerBlock)

	fmt.Printf("direct blocks:    %4d\n", image.DirectBlocks)
	fmt.Printf("max file blocks:  %8d\n", image.MaxFileBlocks)
	fmt.Printf("max file size:    %8d MB\n\n", image.MaxFileSize/mb)

	fmt.Printf("max path len:     %4d\n", image.MaxPathLen)
	fmt.Printf("max dir size:     %4d B\n", image.FSDirMax)
}

func printHeader(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fsys, err := sfs.Mount(data)
	if err != nil {
		return err
	}

	st := fsys.Statfs()
	id := fsys.VolumeID()

	fmt.Println("-------- HEADER --------")
	fmt.Printf("volume id:        %x\n\n", id)

	fmt.Printf("blocks:           %6d\n", st.Blocks-st.BlocksFree)
	fmt.Printf("blocks_free:      %6d\n", st.BlocksFree)
	fmt.Printf("blocks_total:     %6d\n\n", st.Blocks)

	fmt.Printf("inodes:           %6d\n", st.Inodes-st.InodesFree)
	fmt.Printf("inodes_free:      %6d\n", st.InodesFree)
	fmt.Printf("inodes_total:     %6d\n\n", st.Inodes)

	fmt.Printf("block_size:       %6d B\n", st.BlockSize)
	fmt.Printf("max_path_len:     %6d\n", st.NameLen)

	return nil
}
