package main

import (
	proc "github.com/forestwatch/fcs/processor"
	"bufio"
	"flag"
	"fmt"
	"golang.org/x/crypto/ssh/terminal"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

var fcs_caps string = "http://%s/fcs?service=FCS&request=GetCapabilities"
var fcs_descr string = "http://%s/fcs?service=FCS&request=DescribeProcess&identifier=ForestCarbon"
var fcs_exec string = "http://%s/fcs?service=FCS&request=Execute&identifier=ForestCarbon&regions=%s"
var csv_header string = "GID_0,NAME_0,ha"
var passed string = "Passed"
var failed string = "Failed"

func Capabilities(host, req string) bool {
	resp, err := http.Get(fmt.Sprintf(req, host))
	if err != nil {
		log.Fatal(err)
	}
	if resp.StatusCode != 200 {
		return false
	}

	return true
}

func ExecuteGet(host, regions string) bool {
	resp, err := http.Get(fmt.Sprintf(fcs_exec, host, regions))
	if err != nil {
		log.Fatal(err)
	}
	if resp.StatusCode != 200 {
		return false
	}

	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil || !strings.HasPrefix(string(body), csv_header) {
		fmt.Println(string(body))
		return false
	}

	return true
}

func ExecuteList(host, urlList string, concLevel int) (bool, time.Duration) {
	out := true
	start := time.Now()
	f, err := os.Open(urlList)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	//Concurrency set to 6 simultaneous connections
	conc := proc.NewConcLimiter(concLevel)
	results := make(chan int)
	defer close(results)
	go func() {
		for res := range results {
			if res != 200 {
				out = false
			}
		}
	}()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		conc.Increase()
		go func(url string) {
			resp, err := http.Get(fmt.Sprintf(url, host))
			if err != nil {
				log.Fatal(err)
			}
			results <- resp.StatusCode
			conc.Decrease()
		}(scanner.Text())
	}

	conc.Wait()

	return out, time.Since(start)
}

func ExecutePost(host, payloadPath string, concLevel int) (bool, time.Duration) {
	start := time.Now()

	out := true

	conc := proc.NewConcLimiter(concLevel)
	results := make(chan bool)
	defer close(results)
	go func() {
		for res := range results {
			if res == false {
				out = false
			}
		}
	}()

	files, _ := ioutil.ReadDir(payloadPath)
	for _, fName := range files {
		conc.Increase()
		go func(fPath string) {
			results <- QueryRegions(host, fPath)
			conc.Decrease()
		}(payloadPath + fName.Name())
	}
	conc.Wait()
	time.Sleep(100 * time.Millisecond)

	return out, time.Since(start)
}

func QueryRegions(host, fileName string) bool {
	f, err := os.Open(fileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	resp, err := http.Post(fmt.Sprintf("http://%s/fcs?service=FCS&request=Execute", host), "text/plain;charset=UTF-8", f)
	if err != nil {
		log.Fatal(err)
	}
	if resp.StatusCode != 200 {
		return false
	}

	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil || !strings.HasPrefix(string(body), csv_header) {
		fmt.Println(string(body))
		return false
	}

	return true
}

func inRed(str string) string {
	return fmt.Sprintf("\x1b[31;1m%s\x1b[0m", str)
}

func inGreen(str string) string {
	return fmt.Sprintf("\x1b[32;1m%s\x1b[0m", str)
}

func main() {
	host := flag.String("h", "localhost:8080", "FCS host name or address")
	suite := flag.String("s", "get", "Test suite [get, post, batch]")
	regions := flag.String("r", "AUS,NZL", "Region codes for the Execute probe")
	conc := flag.Int("n", 6, "Concurrency level for acceptance tests")
	flag.Parse()

	var t time.Duration
	var ok bool

	if terminal.IsTerminal(int(os.Stdout.Fd())) {
		passed = inGreen(passed)
		failed = inRed(failed)
	}

	switch *suite {
	case "get":
		fmt.Printf("Testing FCS GetCapabilities: ")
		if !Capabilities(*host, fcs_caps) {
			fmt.Println(failed)
			os.Exit(1)
		}
		fmt.Println(passed)

		fmt.Printf("Testing FCS DescribeProcess: ")
		if !Capabilities(*host, fcs_descr) {
			fmt.Println(failed)
			os.Exit(1)
		}
		fmt.Println(passed)

		fmt.Printf("Testing FCS Execute over %s: ", *regions)
		if !ExecuteGet(*host, *regions) {
			fmt.Println(failed)
			os.Exit(1)
		}
		fmt.Println(passed)
	case "batch":
		fmt.Printf("Testing FCS GetCapabilities: ")
		if !Capabilities(*host, fcs_caps) {
			fmt.Println(failed)
			os.Exit(1)
		}
		fmt.Println(passed)

		fmt.Printf("Testing FCS Execute URL list: ")
		if ok, t = ExecuteList(*host, "acpt_url.tpl", *conc); !ok {
			fmt.Println(failed)
			os.Exit(1)
		}
		fmt.Println(passed, t)
	case "post":
		fmt.Printf("Testing FCS GetCapabilities: ")
		if !Capabilities(*host, fcs_caps) {
			fmt.Println(failed)
			os.Exit(1)
		}
		fmt.Println(passed)

		fmt.Printf("Testing FCS DescribeProcess: ")
		if !Capabilities(*host, fcs_descr) {
			fmt.Println(failed)
			os.Exit(1)
		}
		fmt.Println(passed)

		fmt.Printf("Testing FCS Execute region payloads: ")
		if ok, t = ExecutePost(*host, "region_requests/", *conc); !ok {
			fmt.Println(failed)
			os.Exit(1)
		}
		fmt.Println(passed, t)
	}
}
