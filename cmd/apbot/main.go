// Command apbot is an example Archipelago client: it connects, joins
// a slot, and prints room chat to the terminal, colorized when
// stdout is a TTY.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/mattn/go-isatty"

	"apclient"
	"apclient/internal/apconfig"
	"apclient/internal/connmgr"
	"apclient/internal/identity"
	"apclient/internal/protocol"
	"apclient/internal/render"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to apbot.yaml (optional)")
		debug      = flag.Bool("debug", false, "log raw wire traffic")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[apbot] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := apconfig.Load(*configPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	uuid, err := identity.Load(cfg.UUIDFile)
	if err != nil {
		logger.Fatalf("identity: %v", err)
	}

	pref := connmgr.PreferSecure
	if cfg.Server.PreferInsecure {
		pref = connmgr.PreferInsecure
	}

	format := render.Text
	if isatty.IsTerminal(os.Stdout.Fd()) {
		format = render.Ansi
	}

	client := apclient.NewClient(uuid, cfg.Slot.Game, cfg.Server.Address, pref,
		apclient.WithLogger(logger),
		apclient.WithDebug(*debug || cfg.Debug),
	)

	client.SetCallbacks(apclient.Callbacks{
		OnSocketConnected: func() {
			logger.Printf("socket connected")
			client.ConnectSlot(cfg.Slot.Name, cfg.Server.Password, 0b111, cfg.Slot.Tags, false)
		},
		OnSocketDisconnected: func() {
			logger.Printf("socket disconnected")
		},
		OnSocketError: func(reason string) {
			logger.Printf("socket error: %s", reason)
		},
		OnSlotRefused: func(errors []string) {
			logger.Printf("slot refused: %v", errors)
		},
		OnSlotConnected: func(connected protocol.ConnectedCmd) {
			logger.Printf("slot connected: team=%d slot=%d", connected.Team, connected.Slot)
			client.StatusUpdate(protocol.ClientStatusReady)
		},
		OnItemsReceived: func(items []protocol.NetworkItem) {
			for _, item := range items {
				logger.Printf("received item %d at location %d (index %d)", item.Item, item.Location, item.Index)
			}
		},
		OnPrint: func(text string) {
			logger.Print(text)
		},
		OnPrintJSON: func(data []protocol.TextNode, args protocol.PrintJSONArgs) {
			text, err := client.Render(data, format)
			if err != nil {
				logger.Printf("render error: %v", err)
				return
			}
			logger.Print(text)
		},
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			client.Reset()
			return
		case <-ticker.C:
			client.Poll()
		}
	}
}
