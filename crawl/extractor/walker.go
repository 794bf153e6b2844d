package extractor

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	goeval "github.com/edisonguo/govaluate"
)

const DefaultMaxCrawlErrors = 1000

// HeaderCrawler walks a directory tree concurrently looking for grid
// header sidecars. Directories fan out through a token pool; when the
// pool is exhausted recursion degrades to the current goroutine.
type HeaderCrawler struct {
	Outputs       chan *LayerFile
	Error         chan error
	wg            sync.WaitGroup
	concLimit     chan struct{}
	outputDone    chan struct{}
	pattern       *goeval.EvaluableExpression
	followSymlink bool
	layers        []*LayerFile
}

func NewHeaderCrawler(conc int, pattern *goeval.EvaluableExpression, followSymlink bool) *HeaderCrawler {
	return &HeaderCrawler{
		Outputs:       make(chan *LayerFile, 4096),
		Error:         make(chan error, 100),
		wg:            sync.WaitGroup{},
		concLimit:     make(chan struct{}, conc),
		outputDone:    make(chan struct{}, 1),
		pattern:       pattern,
		followSymlink: followSymlink,
	}
}

// ParsePatternExpression compiles the optional path filter. Valid
// variables are 'path' and 'type' ('d' or 'f').
func ParsePatternExpression(pattern string) (*goeval.EvaluableExpression, error) {
	if len(strings.TrimSpace(pattern)) == 0 {
		return nil, nil
	}

	expr, err := goeval.NewEvaluableExpression(pattern)
	if err != nil {
		return nil, err
	}

	validVariables := map[string]struct{}{"path": struct{}{}, "type": struct{}{}}
	for _, token := range expr.Tokens() {
		if token.Kind == goeval.VARIABLE {
			varName, ok := token.Value.(string)
			if !ok {
				return nil, fmt.Errorf("variable token '%v' failed to cast string", token.Value)
			}
			if _, found := validVariables[varName]; !found {
				return nil, fmt.Errorf("variable %v is not supported. Valid variables are %v", varName, validVariables)
			}
		}
	}
	return expr, nil
}

// Crawl walks rootDir and returns the discovered layers in path order of
// discovery. Per-file failures accumulate; the walk keeps going until the
// error cap.
func (hc *HeaderCrawler) Crawl(rootDir string) ([]*LayerFile, error) {
	absRootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}

	go hc.collectResults()

	hc.wg.Add(1)
	hc.concLimit <- struct{}{}
	hc.crawlDir(absRootDir, false)
	hc.wg.Wait()

	close(hc.Outputs)
	<-hc.outputDone

	close(hc.Error)
	var errors []string
	errCount := 0
	for err := range hc.Error {
		errors = append(errors, err.Error())
		errCount++
		if errCount >= DefaultMaxCrawlErrors {
			errors = append(errors, " ... too many errors")
			break
		}
	}

	if len(errors) > 0 {
		return hc.layers, fmt.Errorf(strings.Join(errors, "\n"))
	}
	return hc.layers, nil
}

func (hc *HeaderCrawler) crawlDir(currPath string, serialised bool) {
	defer hc.wg.Done()
	if !serialised {
		defer func() { <-hc.concLimit }()
	}
	files, err := ioutil.ReadDir(currPath)
	if err != nil {
		select {
		case hc.Error <- err:
		default:
		}
		return
	}

	for _, fi := range files {
		fileName := fi.Name()
		filePath := path.Join(currPath, fileName)
		fMode := fi.Mode()

		if fMode&os.ModeSymlink == os.ModeSymlink {
			if !hc.followSymlink {
				continue
			}
			fStat, err := os.Stat(filePath)
			if err != nil {
				select {
				case hc.Error <- err:
				default:
				}
				continue
			}
			fMode = fStat.Mode()
		}

		if !fMode.IsDir() && !fMode.IsRegular() {
			continue
		}

		if hc.pattern != nil {
			result, err := hc.evaluatePatternExpression(filePath, fMode.IsDir())
			if err != nil {
				select {
				case hc.Error <- err:
				default:
				}
				continue
			}
			if !result {
				continue
			}
		}

		if fMode.IsDir() {
			hc.wg.Add(1)
			select {
			case hc.concLimit <- struct{}{}:
				go func(p string) {
					hc.crawlDir(p, false)
				}(filePath)
			default:
				hc.crawlDir(filePath, true)
			}
			continue
		}

		if !strings.EqualFold(filepath.Ext(fileName), ".hdr") {
			continue
		}

		layer, err := ExtractLayerFile(filePath)
		if err != nil {
			select {
			case hc.Error <- err:
			default:
			}
			continue
		}
		hc.Outputs <- layer
	}
}

func (hc *HeaderCrawler) evaluatePatternExpression(filePath string, isDir bool) (bool, error) {
	fileType := "f"
	if isDir {
		fileType = "d"
	}

	parameters := map[string]interface{}{"type": fileType, "path": filePath}
	result, err := hc.pattern.Evaluate(parameters)
	if err != nil {
		return false, fmt.Errorf("pattern expression: %v", err)
	}

	val, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("pattern expression: result '%v' is not boolean", result)
	}
	return val, nil
}

func (hc *HeaderCrawler) collectResults() {
	for layer := range hc.Outputs {
		hc.layers = append(hc.layers, layer)
	}
	hc.outputDone <- struct{}{}
}
