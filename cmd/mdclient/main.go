// Command mdclient is a CLI client for mdserver: a top-level server flag
// plus one flag.FlagSet per subcommand.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8090", "mdserver base URL")

	subscribeCmd := flag.NewFlagSet("subscribe", flag.ExitOnError)
	subscribeID := subscribeCmd.Uint("instrument-id", 1, "instrument id")

	bookCmd := flag.NewFlagSet("book", flag.ExitOnError)
	bookID := bookCmd.Uint("instrument-id", 1, "instrument id")
	bookDepth := bookCmd.Int("depth", 5, "number of levels to show")

	stateCmd := flag.NewFlagSet("state", flag.ExitOnError)
	stateID := stateCmd.Uint("instrument-id", 1, "instrument id")

	statsCmd := flag.NewFlagSet("stats", flag.ExitOnError)
	eventsCmd := flag.NewFlagSet("events", flag.ExitOnError)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	flag.Parse()

	switch os.Args[1] {
	case "subscribe":
		subscribeCmd.Parse(os.Args[2:])
		subscribe(*serverURL, uint32(*subscribeID))
	case "book":
		bookCmd.Parse(os.Args[2:])
		getBook(*serverURL, uint32(*bookID), *bookDepth)
	case "state":
		stateCmd.Parse(os.Args[2:])
		getState(*serverURL, uint32(*stateID))
	case "stats":
		statsCmd.Parse(os.Args[2:])
		getStats(*serverURL)
	case "events":
		eventsCmd.Parse(os.Args[2:])
		getEvents(*serverURL)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`mdclient: market-data handler CLI

Usage:
  mdclient [-server URL] <command> [flags]

Commands:
  subscribe -instrument-id N    subscribe to an instrument
  book -instrument-id N -depth N    print the current book
  state -instrument-id N       print the instrument's lifecycle state
  stats                        print pending-queue overflow counters
  events                       drain and print pending market-data events`)
}

func subscribe(server string, instrumentID uint32) {
	u := fmt.Sprintf("%s/subscribe?instrument_id=%d", server, instrumentID)
	doAndPrint(http.Post(u, "application/json", nil))
}

func getBook(server string, instrumentID uint32, depth int) {
	u := fmt.Sprintf("%s/book?%s", server, url.Values{
		"instrument_id": {fmt.Sprint(instrumentID)},
		"depth":         {fmt.Sprint(depth)},
	}.Encode())
	doAndPrint(http.Get(u))
}

func getState(server string, instrumentID uint32) {
	u := fmt.Sprintf("%s/state?instrument_id=%d", server, instrumentID)
	doAndPrint(http.Get(u))
}

func getStats(server string) {
	doAndPrint(http.Get(server + "/stats"))
}

func getEvents(server string) {
	doAndPrint(http.Get(server + "/events"))
}

func doAndPrint(resp *http.Response, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "mdclient: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mdclient: reading response: %v\n", err)
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, body, "", "  ") == nil {
		fmt.Println(pretty.String())
		return
	}
	fmt.Println(string(body))
}
