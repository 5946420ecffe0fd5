package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"sheetview/adapters/excel"
	"sheetview/adapters/source"
	"sheetview/internal/viewer"
	"sheetview/ports"
	"sheetview/ui"
)

func main() {
	sourceArg := flag.String("source", "", "spreadsheet path or http(s) URL to preview")
	port := flag.String("port", "8080", "port to listen on")
	flag.Parse()

	v := viewer.New(excel.NewRegistry(excel.DefaultParserConfig()))
	if *sourceArg != "" {
		v.LoadAsync(context.Background(), loaderFor(*sourceArg), func(res viewer.Result) {
			if res.Err != nil {
				log.Printf("Failed to load %s: %v", res.Source, res.Err)
				return
			}
			log.Printf("Loaded %s: %d sheets", res.Source, res.Collection.Len())
		})
	}

	app, err := ui.NewApp(v, ui.Config{Port: *port})
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}

	log.Printf("Starting sheet preview on http://localhost:%s", *port)
	log.Fatal(app.Start())
}

func loaderFor(arg string) ports.SourceLoader {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		// the operator names the source, so local addresses are fair game
		config := source.DefaultURLConfig()
		config.AllowPrivateNetworks = true
		return source.NewURLLoader(arg, config)
	}
	return source.NewFileLoader(arg)
}
