package utils

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

var EtcDir = "."
var DataDir = "."

type ServiceConfig struct {
	FCSHostname        string   `json:"fcs_hostname"`
	CatalogFile        string   `json:"catalog_file"`
	WorkerNodes        []string `json:"worker_nodes"`
	MemcacheURI        string   `json:"memcache_uri"`
	TimeoutLimit       int      `json:"timeout_limit"`
	MaxGrpcRecvMsgSize int      `json:"max_grpc_recv_msg_size"`
}

// RegionStore configures where region polygons come from: a GeoJSON file
// resolved under DataDir, or a PostGIS table queried through lib/pq.
// When both are set the database wins.
type RegionStore struct {
	GeoJSONFile string `json:"geojson_file"`
	Database    string `json:"database"`
	Table       string `json:"table"`
	CodeColumn  string `json:"code_column"`
	NameColumn  string `json:"name_column"`
	GeomColumn  string `json:"geom_column"`
}

// LitData contains the description of a literal input of a process.
type LitData struct {
	Identifier    string   `json:"identifier"`
	Title         string   `json:"title"`
	Abstract      string   `json:"abstract"`
	DataType      string   `json:"data_type"`
	DataTypeRef   string   `json:"data_type_ref"`
	AllowedValues []string `json:"allowed_values"`
}

// CompData contains the description of a complex input of a process.
type CompData struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Abstract   string `json:"abstract"`
	MimeType   string `json:"mime_type"`
	Encoding   string `json:"encoding"`
	Schema     string `json:"schema"`
}

// Process is one published accounting configuration: the default year
// range and cover threshold, the source layer names, the nominal ground
// resolution and the request limits. DerivedColumns lists extra output
// columns as "name=expression" over the per-year band sums.
type Process struct {
	Identifier     string     `json:"identifier"`
	Title          string     `json:"title"`
	Abstract       string     `json:"abstract"`
	StartYear      int        `json:"start_year"`
	EndYear        int        `json:"end_year"`
	Threshold      float64    `json:"threshold"`
	Scale          float64    `json:"scale"`
	CoverLayer     string     `json:"cover_layer"`
	LossLayer      string     `json:"loss_layer"`
	AGBLayer       string     `json:"agb_layer"`
	MaxArea        float64    `json:"max_area"`
	MaxRegions     int        `json:"max_regions"`
	DerivedColumns []string   `json:"derived_columns"`
	LiteralData    []LitData  `json:"literal_data"`
	ComplexData    []CompData `json:"complex_data"`

	ColumnExpr *BandExpressions `json:"-"`
}

// Config is the struct representing the configuration of an FCS server:
// the service section, the region source and the list of processes that
// can be served.
type Config struct {
	ServiceConfig ServiceConfig `json:"service_config"`
	RegionStore   RegionStore   `json:"regions"`
	Processes     []Process     `json:"processes"`
}

const ISOFormat = "2006-01-02T15:04:05.000Z"

const DefaultRecvMsgSize = 10 * 1024 * 1024
const DefaultTimeoutLimit = 600

// LoadConfigFile unmarshals the config.json document, applies service
// defaults and compiles the derived column expressions of every process.
func (config *Config) LoadConfigFile(configFile string) error {
	*config = Config{}
	cfg, err := ioutil.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("Error while reading config file: %s. Error: %v", configFile, err)
	}

	err = json.Unmarshal(cfg, config)
	if err != nil {
		return fmt.Errorf("Error at JSON parsing config document: %s. Error: %v", configFile, err)
	}

	if config.ServiceConfig.MaxGrpcRecvMsgSize <= 0 {
		config.ServiceConfig.MaxGrpcRecvMsgSize = DefaultRecvMsgSize
	}
	if config.ServiceConfig.TimeoutLimit <= 0 {
		config.ServiceConfig.TimeoutLimit = DefaultTimeoutLimit
	}

	for i := range config.Processes {
		process := &config.Processes[i]
		if len(strings.TrimSpace(process.Identifier)) == 0 {
			return fmt.Errorf("Process %d has no identifier in config document: %s", i, configFile)
		}
		if len(process.DerivedColumns) > 0 {
			columnExpr, err := ParseBandExpressions(process.DerivedColumns)
			if err != nil {
				return fmt.Errorf("Error parsing derived columns for process %s: %v", process.Identifier, err)
			}
			process.ColumnExpr = columnExpr
		}
	}
	return nil
}

// Copy returns a copy of the config with the advertised hostname filled
// from the request when the config leaves it empty.
func (config *Config) Copy(r *http.Request) *Config {
	newConf := *config
	if len(strings.TrimSpace(newConf.ServiceConfig.FCSHostname)) == 0 {
		newConf.ServiceConfig.FCSHostname = r.Host
	}
	return &newConf
}

func WatchConfig(infoLog, errLog *log.Logger, config *Config, configFile string) {
	// Catch SIGHUP to automatically reload edited process definitions
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-sighup:
				infoLog.Println("Caught SIGHUP, reloading config...")
				newConf := &Config{}
				if err := newConf.LoadConfigFile(configFile); err != nil {
					errLog.Printf("Error in loading config file: %v\n", err)
					continue
				}
				*config = *newConf
			}
		}
	}()
}
