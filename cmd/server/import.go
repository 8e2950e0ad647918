package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/platewise/menulens/pkg/importer"
)

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	source := fs.String("source", "", "adapter ID to import (e.g. open-dishes)")
	all := fs.Bool("all", false, "import all available sources")
	outputDir := fs.String("output-dir", "catalogs", "output directory for catalogs")
	url := fs.String("url", "", "override the source URL")
	fs.Parse(args)

	if !*all && *source == "" {
		fmt.Println("Available sources:")
		fmt.Println()
		for _, a := range importer.All() {
			fmt.Printf("  %-20s  %s  (-> %s, %s)\n", a.ID(), a.Description(), a.CatalogID(), a.License())
		}
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  menulens import --source <id> [--output-dir <dir>] [--url <url>]")
		fmt.Println("  menulens import --all [--output-dir <dir>]")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	if *all {
		for _, a := range importer.All() {
			fmt.Printf("[%s] importing...\n", a.ID())
			if err := a.Import(ctx, a.DefaultURL(), *outputDir); err != nil {
				fmt.Fprintf(os.Stderr, "[%s] ERROR: %v\n", a.ID(), err)
				continue
			}
			fmt.Printf("[%s] OK\n", a.ID())
		}
		return
	}

	a, err := importer.Get(*source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Println("\nAvailable sources:")
		for _, a := range importer.All() {
			fmt.Printf("  %s\n", a.ID())
		}
		os.Exit(1)
	}

	sourceURL := a.DefaultURL()
	if *url != "" {
		sourceURL = *url
	}

	fmt.Printf("[%s] importing...\n", a.ID())
	if err := a.Import(ctx, sourceURL, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "[%s] ERROR: %v\n", a.ID(), err)
		os.Exit(1)
	}
	fmt.Printf("[%s] OK -> %s/%s/\n", a.ID(), *outputDir, a.CatalogID())
}
