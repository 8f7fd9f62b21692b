package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// input is one named source of bytes.
type input struct {
	name string
	data []byte
}

// readInput reads the file named by args[0], or stdin when absent or "-".
func (a *app) readInput(cmd *cobra.Command, args []string) (input, error) {
	name := "-"
	if len(args) > 0 {
		name = args[0]
	}
	return a.readNamed(cmd, name)
}

func (a *app) readNamed(cmd *cobra.Command, name string) (input, error) {
	var r io.Reader = cmd.InOrStdin()
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return input{}, err
		}
		defer f.Close()
		r = f
	}

	br := bufio.NewReader(r)
	compressed := false
	switch a.cfg.Compression {
	case "zstd":
		compressed = true
	case "auto":
		if strings.HasSuffix(name, ".zst") {
			compressed = true
		} else if magic, _ := br.Peek(len(zstdMagic)); bytes.Equal(magic, zstdMagic) {
			compressed = true
		}
	}

	if !compressed {
		data, err := io.ReadAll(br)
		return input{name: name, data: data}, err
	}

	dec, err := zstd.NewReader(br)
	if err != nil {
		return input{}, fmt.Errorf("zstd: %w", err)
	}
	defer dec.Close()
	data, err := io.ReadAll(dec)
	if err != nil {
		return input{}, fmt.Errorf("zstd: %s: %w", name, err)
	}
	a.logger.Debug("decompressed input", zap.String("file", name), zap.Int("bytes", len(data)))
	return input{name: name, data: data}, nil
}
