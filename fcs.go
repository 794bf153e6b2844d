package main

/* fcs is a web server computing forest carbon statistics over the
   global tree cover, tree cover loss and aboveground biomass grids.
   It exposes a WPS-style interface: GetCapabilities and
   DescribeProcess document the configured processes, Execute runs
   one of them over a set of regions and returns a CSV document of
   per-region, per-year forest area, carbon stock and CO2 emission
   sums. Configuration of the server is specified in the config.json
   file where processes and the region store are defined.
   Region summaries are either computed in-process from the layer
   catalog or fanned out to stats-worker nodes over gRPC. */

import (
	"bytes"
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/forestwatch/fcs/carbon"
	"github.com/forestwatch/fcs/catalog"
	"github.com/forestwatch/fcs/metrics"
	proc "github.com/forestwatch/fcs/processor"
	"github.com/forestwatch/fcs/regions"
	"github.com/forestwatch/fcs/utils"

	_ "net/http/pprof"

	reuseport "github.com/kavu/go_reuseport"
	geo "github.com/nci/geometry"
	"github.com/nci/gomemcache/memcache"
)

// Global variables holding the values specified
// on the config.json document.
var config *utils.Config
var layerStore *catalog.Store
var regionProvider regions.Provider

var mc *memcache.Client

var (
	port            = flag.Int("p", 8080, "Server listening port.")
	serverDataDir   = flag.String("data_dir", utils.DataDir, "Server data directory.")
	serverConfigDir = flag.String("conf_dir", utils.EtcDir, "Server config directory.")
	serverLogDir    = flag.String("log_dir", "", "Server log directory.")
	validateConfig  = flag.Bool("check_conf", false, "Validate server config files.")
	verbose         = flag.Bool("v", false, "Verbose mode for more server outputs.")
)

var reFCSMap map[string]*regexp.Regexp

var (
	Error *log.Logger
	Info  *log.Logger
)

var metricsLogger metrics.Logger

var serverStartTime = time.Now()

// init initialises the loggers, checks required files are in place,
// loads the config document and the layer catalog and connects the
// region provider. This is the first function to be called in main.
func init() {
	rand.Seed(time.Now().UnixNano())

	Error = log.New(os.Stderr, "FCS: ", log.Ldate|log.Ltime|log.Lshortfile)
	Info = log.New(os.Stdout, "FCS: ", log.Ldate|log.Ltime|log.Lshortfile)

	flag.Parse()

	utils.DataDir = *serverDataDir
	utils.EtcDir = *serverConfigDir

	filePaths := []string{
		utils.DataDir + "/static/index.html",
		utils.DataDir + "/templates/FCS_GetCapabilities.tpl",
		utils.DataDir + "/templates/FCS_DescribeProcess.tpl"}

	for _, filePath := range filePaths {
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			panic(err)
		}
	}

	configFile := utils.EtcDir + "/config.json"
	config = &utils.Config{}
	if err := config.LoadConfigFile(configFile); err != nil {
		Error.Printf("Error in loading config file: %v\n", err)
		panic(err)
	}

	if len(config.ServiceConfig.CatalogFile) > 0 {
		catalogFile := config.ServiceConfig.CatalogFile
		if !filepath.IsAbs(catalogFile) {
			catalogFile = filepath.Join(utils.EtcDir, catalogFile)
		}
		store, err := catalog.Load(catalogFile)
		if err != nil {
			Error.Printf("Error in loading layer catalog: %v\n", err)
			panic(err)
		}
		layerStore = store
	}

	if layerStore == nil && len(config.ServiceConfig.WorkerNodes) == 0 {
		panic(fmt.Errorf("config declares neither a layer catalog nor worker nodes"))
	}

	if err := checkProcesses(config, layerStore); err != nil {
		Error.Printf("Error in process definitions: %v\n", err)
		panic(err)
	}

	if *validateConfig {
		os.Exit(0)
	}

	utils.WatchConfig(Info, Error, config, configFile)

	reFCSMap = utils.CompileFCSRegexMap()

	if len(config.RegionStore.Database) > 0 {
		db, err := sql.Open("postgres", config.RegionStore.Database)
		if err != nil {
			Error.Printf("Error in opening region database: %v\n", err)
			panic(err)
		}
		regionProvider = &regions.PostgresProvider{
			DB:          db,
			TemplateDir: utils.DataDir + "/templates",
			Template:    "region_query.jet",
			Table:       config.RegionStore.Table,
			CodeColumn:  defaultStr(config.RegionStore.CodeColumn, "gid_0"),
			NameColumn:  defaultStr(config.RegionStore.NameColumn, "name_0"),
			GeomColumn:  defaultStr(config.RegionStore.GeomColumn, "geom"),
		}
	} else if len(config.RegionStore.GeoJSONFile) > 0 {
		regionFile := config.RegionStore.GeoJSONFile
		if !filepath.IsAbs(regionFile) {
			regionFile = filepath.Join(utils.DataDir, regionFile)
		}
		regionProvider = regions.NewFileProvider(regionFile)
	}

	if len(config.ServiceConfig.MemcacheURI) > 0 {
		// lazy connection; errors returned in .Get
		mc = memcache.New(config.ServiceConfig.MemcacheURI)
	}

	if len(*serverLogDir) > 0 {
		if *serverLogDir == "-" {
			metricsLogger = metrics.NewStdoutLogger()
		} else {
			maxLogAgeDays := 0
			if val, ok := os.LookupEnv("FCS_MAX_LOG_AGE_DAYS"); ok {
				valInt, e := strconv.Atoi(val)
				if e == nil {
					maxLogAgeDays = valInt
				} else {
					Error.Printf("invalid FCS_MAX_LOG_AGE_DAYS: %v", e)
				}
			}
			metricsLogger = metrics.NewFileLogger(*serverLogDir, maxLogAgeDays, *verbose)
		}
	}
}

func defaultStr(val, def string) string {
	if len(strings.TrimSpace(val)) > 0 {
		return val
	}
	return def
}

// processParams merges a process definition into accounting parameters.
func processParams(process *utils.Process) *carbon.Params {
	return &carbon.Params{
		StartYear:  process.StartYear,
		EndYear:    process.EndYear,
		Threshold:  process.Threshold,
		CoverLayer: process.CoverLayer,
		LossLayer:  process.LossLayer,
		AGBLayer:   process.AGBLayer,
	}
}

// checkProcesses validates every process definition eagerly so a bad
// year range, an unknown derived column variable or a missing catalog
// layer fails at startup instead of on the first request.
func checkProcesses(conf *utils.Config, store *catalog.Store) error {
	for i := range conf.Processes {
		process := &conf.Processes[i]
		p := processParams(process)
		if err := p.Validate(); err != nil {
			return fmt.Errorf("process %s: %v", process.Identifier, err)
		}

		if process.ColumnExpr != nil {
			bandNames := make(map[string]bool)
			for _, name := range p.BandNames() {
				bandNames[name] = true
			}
			for _, variable := range process.ColumnExpr.VarList {
				if !bandNames[variable] {
					return fmt.Errorf("process %s: derived column references unknown band '%s'", process.Identifier, variable)
				}
			}
		}

		if store == nil {
			continue
		}

		layerNames := make(map[string]bool)
		for _, name := range store.LayerNames() {
			layerNames[name] = true
		}
		for _, layerName := range []string{
			defaultStr(process.CoverLayer, carbon.DefaultCoverLayer),
			defaultStr(process.LossLayer, carbon.DefaultLossLayer),
			defaultStr(process.AGBLayer, carbon.DefaultAGBLayer),
		} {
			if !layerNames[layerName] {
				return fmt.Errorf("process %s: layer '%s' not in catalog", process.Identifier, layerName)
			}
		}

		if process.Scale > 0 {
			cellSize := store.Grid().CellSizeMeters()
			if cellSize > 0 && (process.Scale > 1.1*cellSize || process.Scale < 0.9*cellSize) {
				Error.Printf("process %s declares scale %.1fm but the catalog grid resolves %.1fm\n", process.Identifier, process.Scale, cellSize)
			}
		}
	}
	return nil
}

func serveFCS(ctx context.Context, params utils.FCSParams, conf *utils.Config, r *http.Request, w http.ResponseWriter, body []byte, metricsCollector *metrics.MetricsCollector) {
	if params.Request == nil {
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, "Malformed FCS, a Request field needs to be specified", 400)
		return
	}

	reqURL := r.URL.String()

	switch *params.Request {
	case "GetCapabilities":
		newConf := conf.Copy(r)
		err := utils.ExecuteWriteTemplateFile(w, newConf,
			utils.DataDir+"/templates/FCS_GetCapabilities.tpl")
		if err != nil {
			metricsCollector.Info.HTTPStatus = 500
			http.Error(w, err.Error(), 500)
		}
	case "DescribeProcess":
		idx, err := utils.GetProcessIndex(params, conf)
		if err != nil {
			Error.Printf("Requested process not found: %v, %v\n", err, reqURL)
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, fmt.Sprintf("%v: %s", err, reqURL), 400)
			return
		}
		process := conf.Processes[idx]
		err = utils.ExecuteWriteTemplateFile(w, process,
			utils.DataDir+"/templates/FCS_DescribeProcess.tpl")
		if err != nil {
			metricsCollector.Info.HTTPStatus = 500
			http.Error(w, err.Error(), 500)
		}
	case "Execute":
		idx, err := utils.GetProcessIndex(params, conf)
		if err != nil {
			Error.Printf("Requested process not found: %v, %v\n", err, reqURL)
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, fmt.Sprintf("%v: %s", err, reqURL), 400)
			return
		}
		process := conf.Processes[idx]
		metricsCollector.Info.Aggregator.Process = process.Identifier

		var regs []*regions.Region
		if len(params.FeatCol.Features) > 0 {
			for _, feat := range params.FeatCol.Features {
				switch feat.Geometry.(type) {
				case *geo.Polygon, *geo.MultiPolygon:
				default:
					metricsCollector.Info.HTTPStatus = 400
					http.Error(w, "Geometry not supported. Only Features containing Polygon or MultiPolygon are available..", 400)
					return
				}
			}
			regs, err = regions.FromFeatureCollection(&params.FeatCol)
			if err != nil {
				metricsCollector.Info.HTTPStatus = 400
				http.Error(w, fmt.Sprintf("Error in the geometry payload: %v", err), 400)
				return
			}
		} else if regionProvider != nil {
			regs, err = regionProvider.Regions(params.Regions)
			if err != nil {
				Error.Printf("Region lookup failed: %v\n", err)
				metricsCollector.Info.HTTPStatus = 400
				http.Error(w, fmt.Sprintf("Error resolving regions: %v", err), 400)
				return
			}
		} else {
			Info.Printf("The request does not contain the 'geometry' property.\n")
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, "The request does not contain the 'geometry' property and no region store is configured", 400)
			return
		}

		if process.MaxRegions > 0 && len(regs) > process.MaxRegions {
			Info.Printf("The request contains %d regions, max is %d\n", len(regs), process.MaxRegions)
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, fmt.Sprintf("The request contains too many regions. Please try with at most %d.", process.MaxRegions), 400)
			return
		}
		metricsCollector.Info.Aggregator.NumRegions = len(regs)

		area := 0.0
		for _, region := range regs {
			area += region.Ha * 10000.0
		}
		metricsCollector.Info.Aggregator.GeometryArea = area
		if *verbose {
			log.Println("Requested regions have an area of", area)
		}
		if process.MaxArea > 0 && (area == 0.0 || area > process.MaxArea) {
			Info.Printf("The requested area %.02f, is too large.\n", area)
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, "The requested area is too large. Please try with a smaller one.", 400)
			return
		}

		p := processParams(&process)
		if params.StartYear != nil {
			p.StartYear = *params.StartYear
		}
		if params.EndYear != nil {
			p.EndYear = *params.EndYear
		}
		if params.Threshold != nil {
			p.Threshold = *params.Threshold
		}
		if err := p.Validate(); err != nil {
			Info.Printf("Invalid accounting parameters: %v\n", err)
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, err.Error(), 400)
			return
		}

		bandNames := p.BandNames()
		metricsCollector.Info.Aggregator.NumBands = len(bandNames)

		var cacheHash string
		if mc != nil {
			buff := md5.Sum(append([]byte(r.URL.RequestURI()), body...))
			cacheHash = hex.EncodeToString(buff[:])
			if cached, mcErr := mc.Get(cacheHash); mcErr == nil {
				w.Header().Set("Content-Type", "text/csv")
				w.Write(cached.Value)
				return
			}
		}

		ctx, ctxCancel := context.WithTimeout(ctx, time.Duration(conf.ServiceConfig.TimeoutLimit)*time.Second)
		defer ctxCancel()
		errChan := make(chan error, 100)

		suffix := fmt.Sprintf("%04d", rand.Intn(1000))

		dp := proc.InitStatsPipeline(ctx, conf.ServiceConfig.WorkerNodes, conf.ServiceConfig.MaxGrpcRecvMsgSize, layerStore, errChan)
		statsReq := &proc.StatsRequest{Regions: regs, Params: p, MetricsCollector: metricsCollector}

		t0 := time.Now()
		select {
		case result, ok := <-dp.Process(statsReq, bandNames, process.ColumnExpr, *verbose):
			metricsCollector.Info.Aggregator.Duration = time.Since(t0)
			if !ok {
				pErr := fmt.Errorf("pipeline returned no result")
				select {
				case pErr = <-errChan:
				default:
				}
				Info.Printf("Error in the pipeline: %v\n", pErr)
				metricsCollector.Info.HTTPStatus = 500
				http.Error(w, pErr.Error(), 500)
				return
			}
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_%s.csv"`, process.Identifier, suffix))
			w.Write([]byte(result))
			if mc != nil {
				// don't care about errors; memcache may not necessarily retain this anyway
				mc.Set(&memcache.Item{Key: cacheHash, Value: []byte(result)})
			}
		case err := <-errChan:
			Info.Printf("Error in the pipeline: %v\n", err)
			metricsCollector.Info.HTTPStatus = 500
			http.Error(w, err.Error(), 500)
		case <-ctx.Done():
			Error.Printf("Context cancelled with message: %v\n", ctx.Err())
			metricsCollector.Info.HTTPStatus = 500
			http.Error(w, ctx.Err().Error(), 500)
		}

	default:
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, fmt.Sprintf("%s not recognised.", *params.Request), 400)
	}
}

// fcsHandler handles every request received on /fcs
func fcsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate, max-age=0")
	if *verbose {
		Info.Printf("%s\n", r.URL.String())
	}
	ctx := r.Context()

	metricsCollector := metrics.NewMetricsCollector(metricsLogger)
	defer metricsCollector.Log()

	t0 := time.Now()
	metricsCollector.Info.ReqTime = t0.Format(utils.ISOFormat)
	defer func() { metricsCollector.Info.ReqDuration = time.Since(t0) }()

	reqURL, e := url.QueryUnescape(r.URL.String())
	if e == nil {
		metricsCollector.Info.URL.RawURL = reqURL
	} else {
		metricsCollector.Info.URL.RawURL = r.URL.String()
	}

	remoteAddr := utils.ParseRemoteAddr(r)
	metricsCollector.Info.RemoteAddr = remoteAddr
	metricsCollector.Info.HTTPStatus = 200

	var query map[string][]string
	var body []byte
	var err error
	switch r.Method {
	case "POST":
		body, err = ioutil.ReadAll(r.Body)
		if err != nil {
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, fmt.Sprintf("Error reading FCS POST payload: %s", err), 400)
			return
		}
		query, err = utils.ParsePost(ioutil.NopCloser(bytes.NewReader(body)))
		if err != nil {
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, fmt.Sprintf("Error parsing FCS POST payload: %s", err), 400)
			return
		}

	case "GET":
		query, err = utils.ParseQuery(r.URL.RawQuery)
		if err != nil {
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, fmt.Sprintf("Failed to parse query: %v", err), 400)
			return
		}
	}

	if _, fOK := query["service"]; !fOK {
		canInferService := false
		if request, hasReq := query["request"]; hasReq {
			switch request[0] {
			case "GetCapabilities", "DescribeProcess", "Execute":
				query["service"] = []string{"FCS"}
				canInferService = true
			}
		}

		if !canInferService {
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, "Not an FCS request. Request does not contain a 'service' parameter.", 400)
			return
		}
	}

	params, err := utils.FCSParamsChecker(query, reFCSMap)
	if err != nil {
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, fmt.Sprintf("Wrong FCS parameters on URL: %s", err), 400)
		return
	}

	if _, hasId := query["identifier"]; hasId && r.Method == "POST" {
		if params.Identifier != nil {
			rawURL := metricsCollector.Info.URL.RawURL
			var sep string
			if strings.Contains(rawURL, "?") {
				sep = "&"
			} else {
				sep = "?"
			}
			metricsCollector.Info.URL.RawURL = fmt.Sprintf("%s%sidentifier=%s", rawURL, sep, *params.Identifier)
		}
	}

	serveFCS(ctx, params, config, r, w, body, metricsCollector)
}

// metricsHandler reports liveness and basic serving facts as JSON.
func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	status := map[string]interface{}{
		"status":    "ok",
		"uptime":    time.Since(serverStartTime).String(),
		"processes": len(config.Processes),
		"workers":   len(config.ServiceConfig.WorkerNodes),
	}
	if layerStore != nil {
		status["layers"] = len(layerStore.LayerNames())
	}
	err := json.NewEncoder(w).Encode(status)
	if err != nil {
		Error.Printf("Error encoding metrics status: %v\n", err)
	}
}

func fileHandler(w http.ResponseWriter, r *http.Request) {
	upath := r.URL.Path
	if !strings.HasPrefix(upath, "/") {
		upath = "/" + upath
		r.URL.Path = upath
	}
	upath = path.Clean(upath)
	upath = filepath.Join(utils.DataDir+"/static", upath)

	if *verbose {
		Info.Printf("%s -> %s\n", r.URL.String(), upath)
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate, max-age=0")
	http.ServeFile(w, r, upath)
}

func main() {
	http.HandleFunc("/", fileHandler)
	http.HandleFunc("/fcs", fcsHandler)
	http.HandleFunc("/metrics", metricsHandler)

	lis, err := reuseport.Listen("tcp4", fmt.Sprintf("0.0.0.0:%d", *port))
	if err != nil {
		Error.Printf("Failed to listen on port %d: %v\n", *port, err)
		panic(err)
	}

	Info.Printf("FCS is ready")
	log.Fatal(http.Serve(lis, nil))
}
