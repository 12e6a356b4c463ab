// Command feedsim publishes a deterministic stream of incremental book
// updates over two NATS subjects (md.feed.a / md.feed.b), standing in
// for a real multicast A/B transport purely to exercise
// internal/marketdata.Arbitrator end to end: every update goes out on
// feed A and then, with the same sequence number, on feed B, except that
// feed B drops every Nth update, so a consumer has to dedupe and detect
// gaps the way a real redundant feed would force it to.
//
// The per-symbol tick-loop-per-goroutine shape generalizes down to one
// instrument and two NATS publishers instead of many symbols and a
// WebSocket fan-out.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rishav/gosbe/internal/config"
	"github.com/rishav/gosbe/internal/marketdata"
)

// wireUpdate is the JSON-over-NATS payload published on both feed
// subjects; a production transport would carry the SBE-encoded
// IncrementalUpdate instead, but JSON keeps this demo binary
// self-contained.
type wireUpdate struct {
	InstrumentID uint32 `json:"instrument_id"`
	SeqNum       uint64 `json:"seq_num"`
	Side         int    `json:"side"`
	Price        int64  `json:"price"`
	Quantity     uint64 `json:"quantity"`
	OrderCount   uint32 `json:"order_count"`
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	instrumentID := flag.Uint("instrument-id", 1, "instrument id to simulate")
	rateHz := flag.Int("rate", 50, "updates per second")
	dropEvery := flag.Int("drop-every", 17, "drop one update from feed B every N sequences (0 disables)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("feedsim: %v", err)
		}
		cfg = loaded
	}

	nc, err := nats.Connect(cfg.Feed.NATSAddr, nats.MaxReconnects(10), nats.ReconnectWait(time.Second))
	if err != nil {
		log.Fatalf("feedsim: connect to nats: %v", err)
	}
	defer nc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("feedsim: received signal %v, shutting down", sig)
		cancel()
	}()

	log.Printf("feedsim: publishing instrument %d on %s / %s at %d Hz (nats=%s)",
		*instrumentID, cfg.Feed.SubjectA, cfg.Feed.SubjectB, *rateHz, cfg.Feed.NATSAddr)

	runTickLoop(ctx, nc, cfg.Feed.SubjectA, cfg.Feed.SubjectB, uint32(*instrumentID), *rateHz, *dropEvery)
	log.Println("feedsim: stopped")
}

func runTickLoop(ctx context.Context, nc *nats.Conn, subjectA, subjectB string, instrumentID uint32, rateHz, dropEvery int) {
	if rateHz <= 0 {
		rateHz = 1
	}
	ticker := time.NewTicker(time.Second / time.Duration(rateHz))
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(int64(instrumentID)))
	price := int64(10000)
	seq := uint64(1)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			price += int64(rng.Intn(5) - 2)
			upd := wireUpdate{
				InstrumentID: instrumentID,
				SeqNum:       seq,
				Side:         int(marketdata.Bid),
				Price:        price,
				Quantity:     uint64(rng.Intn(100) + 1),
				OrderCount:   1,
			}
			publish(nc, subjectA, upd)

			// feed B carries the same sequence, occasionally dropped, to
			// give an A/B arbitrator a real gap to detect.
			if dropEvery <= 0 || int(seq)%dropEvery != 0 {
				publish(nc, subjectB, upd)
			}
			seq++
		}
	}
}

func publish(nc *nats.Conn, subject string, upd wireUpdate) {
	data, err := json.Marshal(upd)
	if err != nil {
		log.Printf("feedsim: marshal update: %v", err)
		return
	}
	if err := nc.Publish(subject, data); err != nil {
		log.Printf("feedsim: publish to %s: %v", subject, err)
	}
}
