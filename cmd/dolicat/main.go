package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"dolicat/internal"
	"dolicat/internal/catalog"
	"dolicat/internal/config"
	"dolicat/internal/pipeline"
	"dolicat/internal/storage"
	"dolicat/internal/watch"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	switch cmd {
	case "catalog:pull":
		must(cfg.Require("ERP_API_KEY", cfg.ERPAPIKey))
		svc := catalog.NewSyncService(db, cfg)
		res, err := svc.Pull(ctx)
		must(err)
		printRejects(res.Rejects)
		fmt.Printf("pull complete trace=%s stored=%d rejected=%d\n", res.TraceID, len(res.Records), len(res.Rejects))
	case "catalog:push":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "json|xlsx|html file with products")
		inType := fs.String("type", "", "json|xlsx|html (default: from extension)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		must(cfg.Require("ERP_API_KEY", cfg.ERPAPIKey))

		raws, source, err := pipeline.ExtractFile(*input, *inType)
		must(err)
		svc := catalog.NewSyncService(db, cfg)
		processor := pipeline.NewProcessingService(db, cfg)
		items, rejects := pipeline.NormalizeRecords(processor.Assembler(), raws, source)
		printRejects(rejects)

		res, err := svc.Push(ctx, pipeline.Records(items))
		must(err)
		printRejects(res.Rejects)
		fmt.Printf("push complete updated=%d created=%d rejected=%d\n", res.Updated, res.Created, len(rejects)+len(res.Rejects))
	case "catalog:status":
		count, err := db.CountProducts()
		must(err)
		last, err := catalog.NewSyncService(db, cfg).LastPull()
		must(err)
		run, err := db.LastRun()
		must(err)
		fmt.Printf("profile locale=%s features=%v\n", cfg.Profile.Locale, cfg.Profile.Features())
		fmt.Printf("products=%d\n", count)
		if last != nil {
			fmt.Printf("last pull=%s\n", last.Format("2006-01-02 15:04:05"))
		}
		if run != nil {
			fmt.Printf("last run id=%d trace=%s source=%s counts=%s\n", run.ID, run.TraceID, run.Source, run.CountsJSON)
		}
	case "catalog:watch":
		svc := watch.NewService(db, cfg, catalog.NewSyncService(db, cfg))
		must(svc.Run(ctx))
	case "normalize":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "json|xlsx|html file with products")
		inType := fs.String("type", "", "json|xlsx|html (default: from extension)")
		format := fs.String("format", pipeline.FormatJSON, "json|erp|listing|xlsx")
		output := fs.String("output", "", "output path")
		_ = fs.Parse(os.Args[2:])
		if *input == "" || *output == "" {
			must(fmt.Errorf("--input and --output are required"))
		}

		raws, source, err := pipeline.ExtractFile(*input, *inType)
		must(err)
		processor := pipeline.NewProcessingService(db, cfg)
		items, rejects := pipeline.NormalizeRecords(processor.Assembler(), raws, source)
		printRejects(rejects)
		records := pipeline.Records(items)
		if *format == "xlsx" {
			must(pipeline.ExportCatalogXLSX(records, cfg.Profile, *output))
		} else {
			must(pipeline.ExportJSON(records, cfg.Profile, *format, *output))
		}
		fmt.Printf("normalize done records=%d rejected=%d output=%s\n", len(records), len(rejects), *output)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", filepath.Join(cfg.OutputDir, "catalog.xlsx"), "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		records, err := pipeline.LoadSnapshots(db)
		must(err)
		if len(records) == 0 {
			must(fmt.Errorf("no stored products, run catalog:pull first"))
		}
		must(pipeline.ExportCatalogXLSX(records, cfg.Profile, *out))
		fmt.Printf("exported %d products to %s\n", len(records), *out)
	case "export:json":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		format := fs.String("format", pipeline.FormatJSON, "json|erp|listing")
		out := fs.String("out", "", "output json path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			*out = filepath.Join(cfg.OutputDir, "catalog-"+*format+".json")
		}
		records, err := pipeline.LoadSnapshots(db)
		must(err)
		must(pipeline.ExportJSON(records, cfg.Profile, *format, *out))
		fmt.Printf("exported %d products to %s\n", len(records), *out)
	case "customer:show":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.Uint("id", 0, "third party id")
		_ = fs.Parse(os.Args[2:])
		if *id == 0 {
			must(fmt.Errorf("--id is required"))
		}
		customer, err := catalog.NewClient(cfg).GetThirdParty(ctx, uint32(*id))
		must(err)
		printJSON(customer)
	case "order:show":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.Uint("id", 0, "order id")
		_ = fs.Parse(os.Args[2:])
		if *id == 0 {
			must(fmt.Errorf("--id is required"))
		}
		order, err := catalog.NewClient(cfg).GetOrder(ctx, uint32(*id))
		must(err)
		printJSON(order)
	default:
		usage()
		os.Exit(1)
	}
}

func printRejects(rejects []internal.Reject) {
	for _, r := range rejects {
		fmt.Printf("rejected #%d ref=%q field=%s: %s\n", r.Index, r.Reference, r.Field, r.Message)
	}
}

func printJSON(v any) {
	blob, err := json.MarshalIndent(v, "", "  ")
	must(err)
	fmt.Println(string(blob))
}

func usage() {
	fmt.Println("usage: dolicat <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:pull")
	fmt.Println("  catalog:push --input=./products.json [--type=json|xlsx|html]")
	fmt.Println("  catalog:status")
	fmt.Println("  catalog:watch")
	fmt.Println("  normalize --input=... [--type=json|xlsx|html] --format=json|erp|listing|xlsx --output=...")
	fmt.Println("  export:xlsx [--out=./out/catalog.xlsx]")
	fmt.Println("  export:json --format=json|erp|listing [--out=...]")
	fmt.Println("  customer:show --id=12")
	fmt.Println("  order:show --id=34")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
