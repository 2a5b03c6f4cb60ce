package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cilforge/cilforge/internal/metadata"
	"github.com/cilforge/cilforge/internal/view"
	"github.com/cilforge/cilforge/pkg"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cilforge-dump <metadata-blob>")
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		pkg.FatalLog(err)
	}
	assembly, err := view.ParseAssembly(data)
	if err != nil {
		pkg.FatalLog(err)
	}

	fmt.Printf("version: %s\n", assembly.Root.Version)
	fmt.Printf("heap flags: %#02x\n\n", assembly.Tables.HeapSizes)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STREAM\tOFFSET\tSIZE")
	for _, name := range assembly.Root.Streams.Sorted {
		h := assembly.Root.Streams.Get(name)
		fmt.Fprintf(w, "%s\t%d\t%d\n", h.Name, h.Offset, h.Size)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "TABLE\tROWS\tROW BYTES")
	for _, id := range metadata.TableIds() {
		count := assembly.Tables.RowCounts[id]
		if count == 0 {
			continue
		}
		schema, _ := metadata.SchemaFor(id)
		fmt.Fprintf(w, "%s\t%d\t%d\n", id, count, schema.RowSize(assembly.Tables.Info))
	}
	w.Flush()
}
