// Command peer is a headless mesh participant: it joins a room through the
// relay, negotiates a direct connection with every other member, and logs
// roster and chat activity. Useful for soak-testing a relay and for filling
// rooms during development.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/peermesh/videomesh/config"
	"github.com/peermesh/videomesh/internal/coordinator"
	"github.com/peermesh/videomesh/internal/media"
	"github.com/peermesh/videomesh/internal/protocol"
	"github.com/peermesh/videomesh/internal/signalclient"
)

func main() {
	relayURL := flag.String("relay", "ws://localhost:8080/ws/signal", "relay signaling endpoint")
	room := flag.String("room", "lobby", "room to join")
	name := flag.String("name", "headless", "display name")
	lang := flag.String("lang", "en", "chat language")
	flag.Parse()

	cfg := config.Load()

	sc, err := signalclient.Dial(*relayURL)
	if err != nil {
		log.Fatalf("Failed to connect to relay: %v", err)
	}
	defer sc.Close()

	// Headless: no capture devices, sessions negotiate receive-only.
	src := media.NewSource(nil)
	src.OnChange(func(mic, cam bool) {
		if err := sc.SendState(mic, cam); err != nil {
			log.Printf("state broadcast failed: %v", err)
		}
	})

	coord := coordinator.New(coordinator.Config{
		Signaler:           sc,
		Links:              coordinator.NewPionFactory(cfg.ICEServers, src),
		NegotiationTimeout: cfg.NegotiationTimeout,
		Hooks: coordinator.Hooks{
			OnRoster: func(entries []coordinator.RosterEntry) {
				parts := make([]string, 0, len(entries))
				for _, e := range entries {
					parts = append(parts, e.Name+"("+e.State.String()+")")
				}
				log.Printf("roster: [%s]", strings.Join(parts, " "))
			},
			OnChat: func(msg protocol.DeliveredChat) {
				log.Printf("chat <%s> %s", msg.Name, msg.Msg)
			},
		},
	})
	defer coord.Close()

	if err := sc.Join(*room, *name, *lang); err != nil {
		log.Fatalf("Failed to join room %s: %v", *room, err)
	}
	log.Printf("Joined room %s as %q", *room, *name)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	for {
		select {
		case ev, ok := <-sc.Events():
			if !ok {
				log.Println("Relay connection closed")
				return
			}
			coord.HandleEvent(ev)
		case <-interrupt:
			log.Println("Interrupted, leaving")
			return
		}
	}
}
