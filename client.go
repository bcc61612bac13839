// Package apclient implements the client half of the Archipelago
// randomizer multiworld protocol: a long-lived, reconnecting
// WebSocket client driven entirely by a single cooperative Poll call.
package apclient

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"apclient/internal/catalog"
	"apclient/internal/connmgr"
	"apclient/internal/protocol"
	"apclient/internal/queue"
	"apclient/internal/render"
	"apclient/internal/store"
	"apclient/internal/transport"
)

// ConnectionState mirrors the protocol's forward-monotonic state
// machine.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	SocketConnecting
	SocketConnected
	RoomInfoReceived
	SlotConnected
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case SocketConnecting:
		return "SocketConnecting"
	case SocketConnected:
		return "SocketConnected"
	case RoomInfoReceived:
		return "RoomInfoReceived"
	case SlotConnected:
		return "SlotConnected"
	default:
		return "Unknown"
	}
}

// Callbacks are the application-visible events. Every field is
// optional; a nil callback is simply skipped.
type Callbacks struct {
	OnSocketConnected    func()
	OnSocketDisconnected func()
	OnSocketError        func(reason string)
	OnRoomInfo           func(room protocol.RoomInfoCmd)
	OnSlotConnected      func(connected protocol.ConnectedCmd)
	OnSlotRefused        func(errors []string)
	OnItemsReceived      func(items []protocol.NetworkItem)
	OnLocationInfo       func(items []protocol.NetworkItem)
	OnLocationChecked    func(locations []int64)
	OnDataPackageChanged func(dp *catalog.DataPackage)
	OnPrint              func(text string)
	OnPrintJSON          func(data []protocol.TextNode, args protocol.PrintJSONArgs)
	OnBounced            func(cmd protocol.BouncedCmd)
	OnRetrieved          func(keys map[string]json.RawMessage)
	OnSetReply           func(cmd protocol.SetReplyCmd)
}

// Client is the single entry point applications drive via Poll.
type Client struct {
	uuid string
	game string

	tr      transport.Transport
	connMgr *connmgr.Manager
	store   store.DataPackageStore

	log *log.Logger
	dbg bool

	callbacks Callbacks

	state            ConnectionState
	serverVersion    protocol.Version
	generatorVersion protocol.Version
	seedName         string
	hintCostPercent  int
	locationCheckPts int
	hasPassword      bool

	roomTimeServer float64
	roomTimeLocal  time.Time

	dataPackage      *catalog.DataPackage
	catalogIdx       *catalog.Catalog
	pendingFetches   int
	dataPackageValid bool

	team             int
	slot             int
	players          []protocol.NetworkPlayer
	checkedLocations map[int64]struct{}
	missingLocations map[int64]struct{}
	hintPoints       int

	intents *queue.IntentQueue

	nextItemIndex int
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithLogger overrides the default logger (matching this module's
// [prefix]-style stdlib logger convention).
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithDebug enables verbose wire tracing.
func WithDebug(v bool) Option {
	return func(c *Client) { c.dbg = v }
}

// WithStore overrides the default DataPackageStore.
func WithStore(s store.DataPackageStore) Option {
	return func(c *Client) { c.store = s }
}

// WithTransport overrides the default gorilla/websocket transport,
// primarily for tests.
func WithTransport(t transport.Transport) Option {
	return func(c *Client) { c.tr = t }
}

// NewClient constructs a Client for the given identifier and game,
// connecting to addr (normalized per connmgr.NormalizeURI).
func NewClient(uuid, game, addr string, pref connmgr.TLSPreference, opts ...Option) *Client {
	c := &Client{
		uuid:             uuid,
		game:             game,
		tr:               transport.NewWebSocketTransport(),
		log:              log.New(os.Stdout, "[apclient] ", log.LstdFlags|log.Lmicroseconds),
		dataPackage:      catalog.NewDataPackage(),
		catalogIdx:       catalog.New(),
		checkedLocations: make(map[int64]struct{}),
		missingLocations: make(map[int64]struct{}),
		intents:          queue.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = store.NewFileStore("")
	}
	c.connMgr = connmgr.New(c.tr, addr, pref)
	return c
}

// SetCallbacks installs the application's event handlers.
func (c *Client) SetCallbacks(cb Callbacks) { c.callbacks = cb }

// State reports the current connection state.
func (c *Client) State() ConnectionState { return c.state }

// Catalog exposes the read-only id-to-name index for rendering.
func (c *Client) Catalog() *catalog.Catalog { return c.catalogIdx }

// Poll drives the entire client: reconnection timing, transport
// events, and inbound command dispatch. It never blocks and must be
// called on the application's own schedule.
func (c *Client) Poll() {
	now := time.Now()
	events := c.connMgr.Poll(now)
	for _, e := range events {
		switch e.Kind {
		case transport.EventOpened:
			c.onSocketOpened()
		case transport.EventClosed:
			c.onSocketClosed()
		case transport.EventError:
			if c.callbacks.OnSocketError != nil {
				c.callbacks.OnSocketError(e.Reason)
			}
		case transport.EventMessage:
			c.onMessage(e.Message)
		}
	}
}

func (c *Client) onSocketOpened() {
	c.state = SocketConnected
	c.pendingFetches = 0
	if c.callbacks.OnSocketConnected != nil {
		c.callbacks.OnSocketConnected()
	}
}

func (c *Client) onSocketClosed() {
	wasPastConnecting := c.state > SocketConnecting
	c.state = Disconnected
	c.seedName = ""
	if wasPastConnecting && c.callbacks.OnSocketDisconnected != nil {
		c.callbacks.OnSocketDisconnected()
	}
}

func (c *Client) onMessage(text string) {
	frame, err := protocol.ValidateFrame([]byte(text))
	if err != nil {
		c.log.Printf("dropping malformed frame: %v", err)
		return
	}
	if c.dbg {
		c.log.Printf("recv: %s", text)
	}
	for _, raw := range frame {
		c.dispatch(raw)
	}
}

func (c *Client) dispatch(raw json.RawMessage) {
	var base protocol.BaseCommand
	if err := json.Unmarshal(raw, &base); err != nil {
		c.log.Printf("dropping command: %v", err)
		return
	}

	switch base.Cmd {
	case protocol.CmdRoomInfo:
		c.handleRoomInfo(raw)
	case protocol.CmdConnectionRefused:
		c.handleConnectionRefused(raw)
	case protocol.CmdConnected:
		c.handleConnected(raw)
	case protocol.CmdReceivedItems:
		c.handleReceivedItems(raw)
	case protocol.CmdLocationInfo:
		c.handleLocationInfo(raw)
	case protocol.CmdRoomUpdate:
		c.handleRoomUpdate(raw)
	case protocol.CmdDataPackage:
		c.handleDataPackage(raw)
	case protocol.CmdPrint:
		c.handlePrint(raw)
	case protocol.CmdPrintJSON:
		c.handlePrintJSON(raw)
	case protocol.CmdBounced:
		c.handleBounced(raw)
	case protocol.CmdRetrieved:
		c.handleRetrieved(raw)
	case protocol.CmdSetReply:
		c.handleSetReply(raw)
	default:
		// unknown commands are ignored silently
	}
}

func (c *Client) handleRoomInfo(raw json.RawMessage) {
	var room protocol.RoomInfoCmd
	if err := json.Unmarshal(raw, &room); err != nil {
		c.log.Printf("RoomInfo decode error: %v", err)
		return
	}
	c.state = RoomInfoReceived
	c.serverVersion = room.Version
	c.generatorVersion = room.GeneratorVersion
	c.seedName = room.SeedName
	c.hintCostPercent = room.HintCost
	c.locationCheckPts = room.LocationCheckPoints
	c.hasPassword = room.Password
	c.roomTimeServer = room.Time
	c.roomTimeLocal = time.Now()

	res := catalog.Resolve(room, c.store, c.dataPackage, c.catalogIdx)
	c.dataPackageValid = res.Valid
	if res.FetchAll {
		c.pendingFetches++
		c.send(protocol.GetDataPackageCmd{Cmd: protocol.CmdGetDataPackage})
	} else if !res.Valid {
		c.requestDataPackage(res.NeedFetch)
	}

	if c.callbacks.OnRoomInfo != nil {
		c.callbacks.OnRoomInfo(room)
	}
}

func (c *Client) requestDataPackage(games []string) {
	for _, batch := range catalog.BatchForFetch(games) {
		cmd := protocol.GetDataPackageCmd{Cmd: protocol.CmdGetDataPackage, Games: batch}
		c.pendingFetches++
		c.send(cmd)
	}
}

func (c *Client) handleConnectionRefused(raw json.RawMessage) {
	var cmd protocol.ConnectionRefusedCmd
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.log.Printf("ConnectionRefused decode error: %v", err)
		return
	}
	if c.callbacks.OnSlotRefused != nil {
		c.callbacks.OnSlotRefused(cmd.Errors)
	}
}

func (c *Client) handleConnected(raw json.RawMessage) {
	var cmd protocol.ConnectedCmd
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.log.Printf("Connected decode error: %v", err)
		return
	}
	c.state = SlotConnected
	c.team = cmd.Team
	c.slot = cmd.Slot
	c.players = cmd.Players
	if cmd.HintPoints != nil {
		c.hintPoints = *cmd.HintPoints
	}

	c.checkedLocations = make(map[int64]struct{}, len(cmd.CheckedLocations))
	for _, loc := range cmd.CheckedLocations {
		c.checkedLocations[loc] = struct{}{}
	}
	c.missingLocations = make(map[int64]struct{}, len(cmd.MissingLocations))
	for _, loc := range cmd.MissingLocations {
		c.missingLocations[loc] = struct{}{}
	}

	c.drainIntents()

	if c.callbacks.OnSlotConnected != nil {
		c.callbacks.OnSlotConnected(cmd)
	}
	if len(cmd.CheckedLocations) > 0 && c.callbacks.OnLocationChecked != nil {
		c.callbacks.OnLocationChecked(cmd.CheckedLocations)
	}
}

func (c *Client) drainIntents() {
	checks, scouts, hints := c.intents.Drain()
	if checks != nil {
		c.send(*checks)
	}
	for _, s := range scouts {
		c.send(s)
	}
	for _, h := range hints {
		c.send(protocol.UpdateHintCmd{
			Cmd:      protocol.CmdUpdateHint,
			Player:   h.Player,
			Location: h.Location,
			Status:   h.Status,
		})
	}
}

func (c *Client) handleReceivedItems(raw json.RawMessage) {
	var cmd protocol.ReceivedItemsCmd
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.log.Printf("ReceivedItems decode error: %v", err)
		return
	}
	for i := range cmd.Items {
		cmd.Items[i].Index = cmd.Index + i
	}
	c.nextItemIndex = cmd.Index + len(cmd.Items)
	if len(cmd.Items) > 0 && c.callbacks.OnItemsReceived != nil {
		c.callbacks.OnItemsReceived(cmd.Items)
	}
}

func (c *Client) handleLocationInfo(raw json.RawMessage) {
	var cmd protocol.LocationInfoCmd
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.log.Printf("LocationInfo decode error: %v", err)
		return
	}
	for i := range cmd.Locations {
		cmd.Locations[i].Index = -1
	}
	if len(cmd.Locations) > 0 && c.callbacks.OnLocationInfo != nil {
		c.callbacks.OnLocationInfo(cmd.Locations)
	}
}

func (c *Client) handleRoomUpdate(raw json.RawMessage) {
	var cmd protocol.RoomUpdateCmd
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.log.Printf("RoomUpdate decode error: %v", err)
		return
	}
	var newlyChecked []int64
	for _, loc := range cmd.CheckedLocations {
		if _, already := c.checkedLocations[loc]; already {
			continue
		}
		c.checkedLocations[loc] = struct{}{}
		delete(c.missingLocations, loc)
		newlyChecked = append(newlyChecked, loc)
	}
	if cmd.HintPoints != nil {
		c.hintPoints = *cmd.HintPoints
	}
	if cmd.Players != nil {
		c.players = cmd.Players
	}
	if len(newlyChecked) > 0 && c.callbacks.OnLocationChecked != nil {
		c.callbacks.OnLocationChecked(newlyChecked)
	}
}

func (c *Client) handleDataPackage(raw json.RawMessage) {
	var cmd protocol.DataPackageCmd
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.log.Printf("DataPackage decode error: %v", err)
		return
	}
	for game, data := range cmd.Data.Games {
		_ = c.store.Save(game, data)
	}
	c.dataPackage.Merge(cmd.Data.Games)
	c.catalogIdx.Rebuild(c.dataPackage)

	if c.pendingFetches > 0 {
		c.pendingFetches--
	}
	if c.pendingFetches == 0 {
		c.dataPackageValid = true
		if c.callbacks.OnDataPackageChanged != nil {
			c.callbacks.OnDataPackageChanged(c.dataPackage)
		}
	}
}

func (c *Client) handlePrint(raw json.RawMessage) {
	var cmd protocol.PrintCmd
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.log.Printf("Print decode error: %v", err)
		return
	}
	if c.callbacks.OnPrint != nil {
		c.callbacks.OnPrint(cmd.Text)
	}
}

func (c *Client) handlePrintJSON(raw json.RawMessage) {
	var cmd protocol.PrintJSONCmd
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.log.Printf("PrintJSON decode error: %v", err)
		return
	}
	if c.callbacks.OnPrintJSON != nil {
		c.callbacks.OnPrintJSON(cmd.Data, protocol.ParsePrintJSONArgs(cmd))
	}
}

func (c *Client) handleBounced(raw json.RawMessage) {
	var cmd protocol.BouncedCmd
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.log.Printf("Bounced decode error: %v", err)
		return
	}
	if c.callbacks.OnBounced != nil {
		c.callbacks.OnBounced(cmd)
	}
}

func (c *Client) handleRetrieved(raw json.RawMessage) {
	var cmd protocol.RetrievedCmd
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.log.Printf("Retrieved decode error: %v", err)
		return
	}
	if c.callbacks.OnRetrieved != nil {
		c.callbacks.OnRetrieved(cmd.Keys)
	}
}

func (c *Client) handleSetReply(raw json.RawMessage) {
	var cmd protocol.SetReplyCmd
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.log.Printf("SetReply decode error: %v", err)
		return
	}
	if c.callbacks.OnSetReply != nil {
		c.callbacks.OnSetReply(cmd)
	}
}

func (c *Client) send(cmd any) {
	b, err := json.Marshal([1]any{cmd})
	if err != nil {
		c.log.Printf("marshal error: %v", err)
		return
	}
	if c.dbg {
		c.log.Printf("send: %s", b)
	}
	if err := c.tr.Send(string(b)); err != nil {
		c.log.Printf("send error: %v", err)
	}
}

// ServerTime returns the estimated current server wall-clock time,
// uncorrected for clock drift during the session.
func (c *Client) ServerTime() time.Time {
	if c.roomTimeLocal.IsZero() {
		return time.Now()
	}
	elapsed := time.Since(c.roomTimeLocal)
	return time.Unix(0, int64(c.roomTimeServer*float64(time.Second))).Add(elapsed)
}

// HintCostPoints computes the point cost of a single hint given the
// current room's hint_cost percentage and the slot's total location
// count. Returns 0 whenever the percent is zero, regardless of server
// version; otherwise servers at or above 0.3.9 guarantee a cost of at
// least 1 point.
func (c *Client) HintCostPoints(locationCount int) int {
	if c.hintCostPercent == 0 {
		return 0
	}
	raw := c.hintCostPercent * locationCount / 100
	if c.serverVersion.AtLeast(protocol.Version{Major: 0, Minor: 3, Build: 9}) {
		if raw < 1 {
			return 1
		}
	}
	return raw
}

// Reset is the abort primitive: it tears down the transport, clears
// all in-memory state, and transitions to Disconnected so that the
// next Poll begins a fresh reconnect cycle.
func (c *Client) Reset() {
	c.tr.Close()
	c.state = Disconnected
	c.seedName = ""
	c.dataPackage = catalog.NewDataPackage()
	c.catalogIdx = catalog.New()
	c.pendingFetches = 0
	c.dataPackageValid = false
	c.team, c.slot = 0, 0
	c.players = nil
	c.checkedLocations = make(map[int64]struct{})
	c.missingLocations = make(map[int64]struct{})
	c.hintPoints = 0
	c.intents = queue.New()
	c.nextItemIndex = 0
}

// Render converts msg into the requested output format, using this
// client's catalog and slot as rendering context.
func (c *Client) Render(msg []protocol.TextNode, format render.Format) (string, error) {
	return render.Render(msg, format, clientRenderContext{c})
}

type clientRenderContext struct{ c *Client }

func (r clientRenderContext) PlayerAlias(slot int) string {
	if slot == 0 {
		return "Server"
	}
	for _, p := range r.c.players {
		if p.Slot == slot && p.Team == r.c.team {
			return p.Alias
		}
	}
	return "Unknown"
}

func (r clientRenderContext) ItemName(id int64, game string) string {
	return r.c.catalogIdx.ItemName(id, game)
}

func (r clientRenderContext) LocationName(id int64, game string) string {
	return r.c.catalogIdx.LocationName(id, game)
}

func (r clientRenderContext) GameOf(player int) string {
	for _, p := range r.c.players {
		if p.Slot == player && p.Team == r.c.team {
			return r.c.game
		}
	}
	return r.c.game
}

func (r clientRenderContext) OwnSlot() int { return r.c.slot }
