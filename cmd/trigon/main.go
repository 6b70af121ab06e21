// Command trigon is the thin CLI boundary around the store, parser,
// serializer, and SPARQL evaluator: load, dump, and query subcommands
// over a badger-backed quad store. No HTTP server, no config framework —
// stdlib flag only, matching the teacher's own cmd/trigo/main.go shape.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/trigonrdf/trigon/parse"
	"github.com/trigonrdf/trigon/results"
	"github.com/trigonrdf/trigon/serialize"
	"github.com/trigonrdf/trigon/sparql"
	"github.com/trigonrdf/trigon/store"
	"github.com/trigonrdf/trigon/store/badgerkv"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "load":
		err = runLoad(os.Args[2:])
	case "dump":
		err = runDump(os.Args[2:])
	case "query":
		err = runQuery(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "trigon: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: trigon <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  load  -db PATH -format FMT [-bulk] FILE   load quads into the store")
	fmt.Println("  dump  -db PATH -format FMT                write every quad in the store")
	fmt.Println("  query -db PATH [-results FMT] QUERY        run a SPARQL query")
}

func parseFormatFlag(s string) (parse.Format, error) {
	switch strings.ToLower(s) {
	case "nt", "ntriples", "n-triples":
		return parse.FormatNTriples, nil
	case "nq", "nquads", "n-quads":
		return parse.FormatNQuads, nil
	case "ttl", "turtle":
		return parse.FormatTurtle, nil
	case "trig":
		return parse.FormatTriG, nil
	default:
		return 0, fmt.Errorf("unknown format %q", s)
	}
}

func serializeFormatFlag(s string) (serialize.Format, error) {
	switch strings.ToLower(s) {
	case "nt", "ntriples", "n-triples":
		return serialize.FormatNTriples, nil
	case "nq", "nquads", "n-quads":
		return serialize.FormatNQuads, nil
	case "ttl", "turtle":
		return serialize.FormatTurtle, nil
	case "trig":
		return serialize.FormatTriG, nil
	default:
		return 0, fmt.Errorf("unknown format %q", s)
	}
}

func runLoad(args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to the quad store")
	format := fs.String("format", "nq", "input format: nt, nq, ttl, trig")
	bulk := fs.Bool("bulk", false, "use the non-transactional bulk-load path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" || fs.NArg() != 1 {
		return fmt.Errorf("usage: trigon load -db PATH -format FMT [-bulk] FILE")
	}

	fmtID, err := parseFormatFlag(*format)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read %s: %w", fs.Arg(0), err)
	}

	quads, err := parse.ReadAll(fmtID, parse.BlankNodePreserve, data)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	backend, err := badgerkv.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", *dbPath, err)
	}
	defer backend.Close()

	qs, err := store.New(backend)
	if err != nil {
		return fmt.Errorf("open quad store: %w", err)
	}
	defer qs.Close()

	if *bulk {
		if err := store.BulkLoad(backend, quads); err != nil {
			return fmt.Errorf("bulk load: %w", err)
		}
	} else {
		txn, err := qs.Begin(true)
		if err != nil {
			return err
		}
		for _, q := range quads {
			if err := txn.Insert(q); err != nil {
				txn.Rollback()
				return fmt.Errorf("insert: %w", err)
			}
		}
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "loaded %d quads into %s\n", len(quads), *dbPath)
	return nil
}

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to the quad store")
	format := fs.String("format", "nq", "output format: nt, nq, ttl, trig")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		return fmt.Errorf("usage: trigon dump -db PATH -format FMT")
	}

	fmtID, err := serializeFormatFlag(*format)
	if err != nil {
		return err
	}

	backend, err := badgerkv.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", *dbPath, err)
	}
	defer backend.Close()

	qs, err := store.New(backend)
	if err != nil {
		return fmt.Errorf("open quad store: %w", err)
	}
	defer qs.Close()

	snap, err := qs.Snapshot()
	if err != nil {
		return err
	}
	defer snap.Close()

	it, err := snap.Query(store.Pattern{
		Subject: store.Variable{Name: "s"}, Predicate: store.Variable{Name: "p"},
		Object: store.Variable{Name: "o"}, Graph: store.Variable{Name: "g"},
	})
	if err != nil {
		return err
	}
	defer it.Close()

	out := bufio.NewWriter(os.Stdout)
	w := serialize.NewWriter(out, fmtID)
	for it.Next() {
		q, err := it.Quad()
		if err != nil {
			return err
		}
		if err := w.WriteQuad(q); err != nil {
			return err
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return out.Flush()
}

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to the quad store")
	resultsFmt := fs.String("results", "json", "results format for SELECT/ASK: json, xml, csv, tsv")
	queryFile := fs.String("file", "", "read the query from a file instead of argv")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		return fmt.Errorf("usage: trigon query -db PATH [-results FMT] QUERY")
	}

	var queryText string
	switch {
	case *queryFile != "":
		data, err := os.ReadFile(*queryFile)
		if err != nil {
			return err
		}
		queryText = string(data)
	case fs.NArg() == 1:
		queryText = fs.Arg(0)
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		queryText = string(data)
	}

	q, err := sparql.Parse(queryText)
	if err != nil {
		return fmt.Errorf("parse query: %w", err)
	}

	backend, err := badgerkv.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", *dbPath, err)
	}
	defer backend.Close()

	qs, err := store.New(backend)
	if err != nil {
		return fmt.Errorf("open quad store: %w", err)
	}
	defer qs.Close()

	snap, err := qs.Snapshot()
	if err != nil {
		return err
	}
	defer snap.Close()

	dataset := sparql.StoreDataset{Snapshot: snap}
	res, err := sparql.Execute(context.Background(), q, dataset, nil, nil)
	if err != nil {
		return fmt.Errorf("evaluate query: %w", err)
	}

	return writeResult(res, *resultsFmt)
}

func writeResult(res sparql.Result, format string) error {
	if res.Form == sparql.FormConstruct || res.Form == sparql.FormDescribe {
		out, err := results.WriteConstruct(res, serialize.FormatNQuads)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}

	var (
		out []byte
		err error
	)
	switch strings.ToLower(format) {
	case "json":
		out, err = results.WriteJSON(res)
	case "xml":
		out, err = results.WriteXML(res)
	case "csv":
		out, err = results.WriteCSV(res)
	case "tsv":
		out, err = results.WriteTSV(res)
	default:
		return fmt.Errorf("unknown results format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
