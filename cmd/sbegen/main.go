// Command sbegen compiles an SBE schema XML file into a generated Go
// decoder/encoder source file, wiring its components together with
// plain flags rather than a subcommand framework.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rishav/gosbe/internal/codegen"
	"github.com/rishav/gosbe/internal/schema"
)

func main() {
	schemaPath := flag.String("schema", "", "path to the SBE schema XML file (required)")
	outPath := flag.String("out", "", "path to write the generated Go source (required)")
	pkgName := flag.String("package", "sbe", "package name for the generated source")
	flag.Parse()

	if *schemaPath == "" || *outPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*schemaPath, *outPath, *pkgName); err != nil {
		log.Fatalf("sbegen: %v", err)
	}
}

func run(schemaPath, outPath, pkgName string) error {
	f, err := os.Open(schemaPath)
	if err != nil {
		return fmt.Errorf("open schema: %w", err)
	}
	defer f.Close()

	sch, err := schema.Parse(f)
	if err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}

	if err := schema.Validate(sch); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	resolved, err := schema.Resolve(sch)
	if err != nil {
		return fmt.Errorf("resolve schema: %w", err)
	}

	src, err := codegen.Generate(pkgName, sch, resolved)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if err := os.WriteFile(outPath, src, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	log.Printf("sbegen: wrote %d messages to %s (package %s)", len(resolved), outPath, pkgName)
	return nil
}
