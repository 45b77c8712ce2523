package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/scigolib/hdf5import"
)

// runDump prints the detected format of a file followed by a hex dump of
// part of it.
func (a *app) runDump(cmd *cobra.Command, args []string) error {
	filename := args[0]
	offset := int64(a.cfg.GetInt("offset"))
	length := a.cfg.GetInt("length")

	//nolint:gosec // G304: reading the user-selected file is the purpose
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			a.log.WithError(err).Warn("closing file")
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()

	if offset < 0 || offset >= size {
		return fmt.Errorf("h5import: invalid offset %d (file size %d)", offset, size)
	}
	if length < 1 {
		return fmt.Errorf("h5import: invalid length %d", length)
	}

	out := cmd.OutOrStdout()
	format := "unknown format"
	if b, ok := hdf5import.DefaultBackends().Detect(filename); ok {
		format = b.Name
	}
	fmt.Fprintf(out, "%s: %s, %d bytes\n", filename, format, size)

	n := int64(length)
	if remaining := size - offset; n > remaining {
		a.log.WithField("remaining", remaining).Warnf("length %d exceeds the file, dumping %d bytes", length, remaining)
		n = remaining
	}
	buf := make([]byte, n)
	read, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return fmt.Errorf("h5import: read %s: %v", filename, err)
	}

	fmt.Fprintf(out, "Dumping %d bytes at offset 0x%x (%d):\n", read, offset, offset)
	hexDump(out, buf[:read], offset)
	return nil
}

// hexDump writes 16 bytes per line: the offset, the bytes in hex and their
// printable characters.
func hexDump(w io.Writer, buf []byte, offset int64) {
	for i := 0; i < len(buf); i += 16 {
		end := i + 16
		if end > len(buf) {
			end = len(buf)
		}
		chunk := buf[i:end]

		fmt.Fprintf(w, "%08x: ", offset+int64(i))
		for j := 0; j < 16; j++ {
			if j < len(chunk) {
				fmt.Fprintf(w, "%02x ", chunk[j])
			} else {
				fmt.Fprint(w, "   ")
			}
			if j == 7 {
				fmt.Fprint(w, " ")
			}
		}
		fmt.Fprint(w, " |")
		for _, b := range chunk {
			if b >= 32 && b <= 126 {
				fmt.Fprintf(w, "%c", b)
			} else {
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprintln(w, "|")
	}
}
