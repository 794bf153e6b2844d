package main

import (
	extr "github.com/forestwatch/fcs/crawl/extractor"
	"bufio"
	"flag"
	"log"
	"os"
	"sort"

	"github.com/forestwatch/fcs/catalog"
	"gopkg.in/yaml.v2"
)

func ensure(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	catalogName := flag.String("n", "fcs", "Catalog name")
	conc := flag.Int("c", 16, "Concurrency of the directory walk")
	pattern := flag.String("p", "", "Pattern expression filtering crawled paths")
	followSymlink := flag.Bool("l", false, "Follow symlinks")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("Please provide a path to a data directory or '-' for reading from stdin")
	}

	path := flag.Arg(0)
	if path == "-" {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Scan()
		path = scanner.Text()
	}

	expr, err := extr.ParsePatternExpression(*pattern)
	ensure(err)

	crawler := extr.NewHeaderCrawler(*conc, expr, *followSymlink)
	layers, err := crawler.Crawl(path)
	if err != nil {
		os.Stderr.Write([]byte(err.Error() + "\n"))
	}
	if len(layers) == 0 {
		log.Fatalf("no grid layers found under %s", path)
	}

	sort.Slice(layers, func(i, j int) bool { return layers[i].Name < layers[j].Name })

	ref := layers[0]
	doc := catalog.Document{
		Name: *catalogName,
		Grid: catalog.GridDef{
			Origin_x: ref.Grid.OriginX,
			Origin_y: ref.Grid.OriginY,
			Res_x:    ref.Grid.CellSizeX,
			Res_y:    ref.Grid.CellSizeY,
			Width:    ref.Grid.NCols,
			Height:   ref.Grid.NRows,
		},
	}

	seen := map[string]string{}
	for _, layer := range layers {
		if prev, ok := seen[layer.Name]; ok {
			log.Fatalf("layer name %s is ambiguous: %s and %s", layer.Name, prev, layer.HeaderPath)
		}
		seen[layer.Name] = layer.HeaderPath
		if !layer.Grid.SameLattice(ref.Grid) {
			log.Fatalf("layer %s (%s) does not share the lattice of %s", layer.Name, layer.HeaderPath, ref.Name)
		}
		doc.Layers = append(doc.Layers, &catalog.LayerDef{
			Name:      layer.Name,
			File:      layer.DataPath,
			Data_type: layer.Grid.DataType,
			No_data:   layer.Grid.NoData,
		})
	}

	out, err := yaml.Marshal(&doc)
	ensure(err)

	_, err = os.Stdout.Write(out)
	ensure(err)
}
