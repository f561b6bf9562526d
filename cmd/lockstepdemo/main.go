// Command lockstepdemo runs two in-process managers, a host and a guest,
// exchanging lockstep input over an in-memory lossy channel. It exists to
// exercise the library end to end outside of a test binary, the way the
// teacher's ping and mailproxy commands exercise a client session.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/carlmjohnson/versioninfo"

	"github.com/bcolloran/temporal-input-buffer/core"
	"github.com/bcolloran/temporal-input-buffer/demoinput"
	"github.com/bcolloran/temporal-input-buffer/guest"
	"github.com/bcolloran/temporal-input-buffer/host"
	"github.com/bcolloran/temporal-input-buffer/internal/config"
	"github.com/bcolloran/temporal-input-buffer/manager"
)

const (
	hostPlayer  core.PlayerID = 0
	guestPlayer core.PlayerID = 1
)

// lossyChannel models an unreliable transport: a message is delivered
// with probability 1-dropRate, otherwise silently discarded. This is the
// only place the demo touches randomness; the library itself never does.
type lossyChannel struct {
	dropRate float64
	rng      *rand.Rand
}

func (c *lossyChannel) send(buf *[][]byte, payload []byte) {
	if len(payload) == 0 {
		return
	}
	if c.rng.Float64() < c.dropRate {
		return
	}
	*buf = append(*buf, payload)
}

func main() {
	var configPath string
	var ticks int
	var dropRate float64
	var seed int64
	flag.StringVar(&configPath, "config", "", "path to a TOML config file (optional)")
	flag.IntVar(&ticks, "ticks", 120, "number of ticks to simulate")
	flag.Float64Var(&dropRate, "drop-rate", 0.1, "fraction of messages dropped in each direction")
	flag.Int64Var(&seed, "seed", 1, "RNG seed for the lossy channel")
	versioninfo.AddFlag(flag.CommandLine)
	flag.Parse()

	cfg := manager.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	players := []core.PlayerID{hostPlayer, guestPlayer}
	codec := demoinput.Codec{}

	h, err := host.New[demoinput.Input](hostPlayer, players, codec, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "host init:", err)
		os.Exit(1)
	}
	g, err := guest.New[demoinput.Input](guestPlayer, hostPlayer, players, codec, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "guest init:", err)
		os.Exit(1)
	}

	toHost := &lossyChannel{dropRate: dropRate, rng: rand.New(rand.NewSource(seed))}
	toGuest := &lossyChannel{dropRate: dropRate, rng: rand.New(rand.NewSource(seed + 1))}

	for tick := 0; tick < ticks; tick++ {
		t := core.Tick(tick)
		if err := h.SubmitLocalInput(t, demoinput.Input{Buttons: demoinput.ButtonJump}); err != nil {
			fmt.Fprintln(os.Stderr, "host submit:", err)
		}
		if err := g.SubmitLocalInput(t, demoinput.Input{Buttons: demoinput.ButtonFire}); err != nil {
			fmt.Fprintln(os.Stderr, "guest submit:", err)
		}

		var hostOut, guestOut [][]byte
		for _, payload := range h.Broadcast() {
			toHost.send(&guestOut, payload)
		}
		toGuest.send(&hostOut, g.DrainOutboundBytes())

		for _, payload := range guestOut {
			if err := g.IngestBytes(payload); err != nil {
				fmt.Fprintln(os.Stderr, "guest ingest:", err)
			}
		}
		for _, payload := range hostOut {
			if err := h.IngestBytes(guestPlayer, payload); err != nil {
				fmt.Fprintln(os.Stderr, "host ingest:", err)
			}
		}

		h.Prune()
		g.Prune()
	}

	if sft, ok := h.SessionFinalizedThrough(); ok {
		fmt.Printf("host session_finalized_through=%d\n", sft)
	} else {
		fmt.Println("host never reached a session-wide finalized frontier")
	}
	if sft, ok := g.SessionFinalizedThrough(); ok {
		fmt.Printf("guest session_finalized_through=%d\n", sft)
	}
}
