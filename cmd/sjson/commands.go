package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Neumenon/sjson/jschema"
	"github.com/Neumenon/sjson/sjson"
	"github.com/Neumenon/sjson/stream"
	"github.com/Neumenon/sjson/transcode"
)

var errInvalid = errors.New("invalid input")

// parse reads one input and decodes it as a schema-free tree.
func (a *app) parse(cmd *cobra.Command, args []string) (sjson.Value, error) {
	in, err := a.readInput(cmd, args)
	if err != nil {
		return sjson.Value{}, err
	}
	return sjson.ParseValue(a.format, string(in.data))
}

// emit writes v under the configured format followed by a newline.
func (a *app) emit(w io.Writer, v sjson.Value) error {
	text, err := sjson.Encode(a.format, sjson.ValueCodec, v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, text)
	return err
}

func (a *app) fmtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fmt [file]",
		Short: "Reformat input under the configured format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.parse(cmd, args)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), v)
		},
	}
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file...]",
		Short: "Check that each input parses",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			failed := 0
			for _, name := range args {
				in, err := a.readNamed(cmd, name)
				if err != nil {
					return err
				}
				if _, err := sjson.ParseValue(a.format, string(in.data)); err != nil {
					failed++
					reportInvalid(cmd.ErrOrStderr(), name, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", name)
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", errInvalid, failed, len(args))
			}
			return nil
		},
	}
}

// reportInvalid prints name:line:column: reason for decoding errors.
func reportInvalid(w io.Writer, name string, err error) {
	var de *sjson.DecodingError
	if errors.As(err, &de) {
		fmt.Fprintf(w, "%s:%s: %s\n", name, de.Pos, de.Reason)
		return
	}
	fmt.Fprintf(w, "%s: %v\n", name, err)
}

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file]",
		Short: "List every path in the input with its type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.parse(cmd, args)
			if err != nil {
				return err
			}
			w := bufio.NewWriter(cmd.OutOrStdout())
			inspect(w, "$", v)
			return w.Flush()
		},
	}
}

// inspect writes "path<TAB>type[<TAB>detail]" for v and its descendants.
func inspect(w io.Writer, path string, v sjson.Value) {
	switch v.Type() {
	case sjson.TypeArray:
		items, _ := v.Items()
		fmt.Fprintf(w, "%s\tarray\t%d\n", path, len(items))
		for i, item := range items {
			inspect(w, path+"["+strconv.Itoa(i)+"]", item)
		}
	case sjson.TypeObject:
		members, _ := v.Members()
		fmt.Fprintf(w, "%s\tobject\t%d\n", path, len(members))
		for _, m := range members {
			inspect(w, path+"."+m.Key, m.Value)
		}
	case sjson.TypeNull:
		fmt.Fprintf(w, "%s\tnull\n", path)
	default:
		fmt.Fprintf(w, "%s\t%s\t%s\n", path, v.Type(), v)
	}
}

func (a *app) toCBORCmd() *cobra.Command {
	var out string
	var diag bool
	cmd := &cobra.Command{
		Use:   "to-cbor [file]",
		Short: "Convert input to deterministic CBOR",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.parse(cmd, args)
			if err != nil {
				return err
			}
			data, err := transcode.ToCBOR(v)
			if err != nil {
				return err
			}
			if diag {
				text, err := transcode.Diagnose(data)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
				return err
			}
			if out != "" {
				return os.WriteFile(out, data, 0o644)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write CBOR to file instead of stdout")
	cmd.Flags().BoolVar(&diag, "diag", false, "print CBOR diagnostic notation instead of bytes")
	return cmd
}

func (a *app) fromCBORCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "from-cbor [file]",
		Short: "Convert CBOR input to text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.readInput(cmd, args)
			if err != nil {
				return err
			}
			v, err := transcode.FromCBOR(in.data)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), v)
		},
	}
}

func (a *app) streamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Encode and decode framed value streams",
	}

	var withCRC bool
	encode := &cobra.Command{
		Use:   "encode [file]",
		Short: "Write each element of a top-level array as one frame",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.parse(cmd, args)
			if err != nil {
				return err
			}
			items, err := v.Items()
			if err != nil {
				return fmt.Errorf("stream encode: input must be an array: %w", err)
			}
			var opts []stream.WriterOption
			if withCRC {
				opts = append(opts, stream.WithCRC())
			}
			w := stream.NewWriter(cmd.OutOrStdout(), opts...)
			for _, item := range items {
				if err := stream.WriteValue(w, a.format, sjson.ValueCodec, item); err != nil {
					return err
				}
			}
			return w.Close()
		},
	}
	encode.Flags().BoolVar(&withCRC, "crc", false, "include a CRC-32 in each frame header")

	decode := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a framed stream and print one value per frame",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.readInput(cmd, args)
			if err != nil {
				return err
			}
			r := stream.NewReader(bytes.NewReader(in.data))
			frames := 0
			for {
				v, err := stream.ReadValue(r, a.format, sjson.ValueCodec)
				if err == io.EOF {
					break
				}
				var remote *stream.RemoteError
				if errors.As(err, &remote) {
					fmt.Fprintf(cmd.ErrOrStderr(), "frame %d: producer error: %s\n", remote.Seq, remote.Message)
					continue
				}
				if err != nil {
					return err
				}
				frames++
				if err := a.emit(cmd.OutOrStdout(), v); err != nil {
					return err
				}
			}
			a.logger.Debug("stream decoded", zap.Int("frames", frames))
			return nil
		},
	}

	cmd.AddCommand(encode, decode)
	return cmd
}

func (a *app) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [name]",
		Short: "Print the JSON Schema of a registered type, or list registered types",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, name := range a.format.Registry().Names() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			desc, ok := a.format.Registry().Descriptor(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", sjson.ErrNoCodec, args[0])
			}
			raw, err := json.Marshal(jschema.FromDescriptor(desc, jschema.OptionsFor(a.cfg.Format)))
			if err != nil {
				return err
			}
			v, err := sjson.ParseValue(sjson.Default, string(raw))
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), v)
		},
	}
}
