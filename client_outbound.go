package apclient

import "apclient/internal/protocol"

// ConnectSlot attempts to join a slot. Requires at least
// SocketConnected; below that it is not sent and false is returned.
func (c *Client) ConnectSlot(name, password string, itemsHandling int, tags []string, wantSlotData bool) bool {
	if c.state < SocketConnected {
		return false
	}
	c.send(protocol.ConnectCmd{
		Cmd:           protocol.CmdConnect,
		Game:          c.game,
		UUID:          c.uuid,
		Name:          name,
		Password:      password,
		Version:       protocol.DefaultClientVersion,
		ItemsHandling: itemsHandling,
		Tags:          tags,
		SlotData:      wantSlotData,
	})
	return true
}

// ConnectUpdate changes items_handling and/or tags post-connect.
// Requires SocketConnected and at least one non-nil field.
func (c *Client) ConnectUpdate(itemsHandling *int, tags []string) bool {
	if c.state < SocketConnected {
		return false
	}
	if itemsHandling == nil && tags == nil {
		return false
	}
	c.send(protocol.ConnectUpdateCmd{
		Cmd:           protocol.CmdConnectUpdate,
		ItemsHandling: itemsHandling,
		Tags:          tags,
	})
	return true
}

// Sync requests a resend of ReceivedItems. Requires SlotConnected.
func (c *Client) Sync() bool {
	if c.state < SlotConnected {
		return false
	}
	c.send(protocol.SyncCmd{Cmd: protocol.CmdSync})
	return true
}

// LocationChecks submits checks. If not yet SlotConnected, they are
// buffered in the IntentQueue and drained on connect; either way the
// client's own CheckedLocations/MissingLocations view is updated
// immediately so the application sees a coherent state.
func (c *Client) LocationChecks(locations []int64) {
	for _, loc := range locations {
		c.checkedLocations[loc] = struct{}{}
		delete(c.missingLocations, loc)
	}
	if c.state >= SlotConnected {
		c.send(protocol.LocationChecksCmd{Cmd: protocol.CmdLocationChecks, Locations: locations})
		return
	}
	c.intents.QueueChecks(locations)
}

// LocationScouts queries what is at a set of locations without
// claiming them. createAsHint selects the server's hint-creation
// policy. Buffered if not yet SlotConnected.
func (c *Client) LocationScouts(locations []int64, createAsHint int) {
	if c.state >= SlotConnected {
		c.send(protocol.LocationScoutsCmd{Cmd: protocol.CmdLocationScouts, Locations: locations, CreateAsHint: createAsHint})
		return
	}
	c.intents.QueueScouts(createAsHint, locations)
}

// UpdateHint changes a (player, location) hint's status. Buffered if
// not yet SlotConnected, preserving call order on drain.
func (c *Client) UpdateHint(player int, location int64, status protocol.HintStatus) {
	if c.state >= SlotConnected {
		c.send(protocol.UpdateHintCmd{Cmd: protocol.CmdUpdateHint, Player: player, Location: location, Status: status})
		return
	}
	c.intents.QueueHintUpdate(player, location, status)
}

// StatusUpdate reports ClientStatus. Requires SlotConnected to
// actually send; otherwise the status is recorded as deferred and
// "not sent" is reported so the application can retry after connect.
func (c *Client) StatusUpdate(status protocol.ClientStatus) bool {
	if c.state < SlotConnected {
		c.intents.DeferStatus(status)
		return false
	}
	c.send(protocol.StatusUpdateCmd{Cmd: protocol.CmdStatusUpdate, Status: status})
	return true
}

// GetDataPackage explicitly requests data packages for games, batched
// in pairs per the GetDataPackage batching rule. Requires
// RoomInfoReceived.
func (c *Client) GetDataPackage(games []string) bool {
	if c.state < RoomInfoReceived {
		return false
	}
	c.requestDataPackage(games)
	return true
}

// Bounce broadcasts data to other slots, filtered by games/slots/tags.
// Requires RoomInfoReceived.
func (c *Client) Bounce(data any, games []string, slots []int, tags []string) bool {
	if c.state < RoomInfoReceived {
		return false
	}
	c.send(protocol.BounceCmd{Cmd: protocol.CmdBounce, Data: data, Games: games, Slots: slots, Tags: tags})
	return true
}

// Say sends a chat message to the room. Requires RoomInfoReceived.
func (c *Client) Say(text string) bool {
	if c.state < RoomInfoReceived {
		return false
	}
	c.send(protocol.SayCmd{Cmd: protocol.CmdSay, Text: text})
	return true
}

// Get requests data storage values by key. Requires SlotConnected.
func (c *Client) Get(keys []string) bool {
	if c.state < SlotConnected {
		return false
	}
	c.send(protocol.GetCmd{Cmd: protocol.CmdGet, Keys: keys})
	return true
}

// Set mutates a data storage key. Requires SlotConnected.
func (c *Client) Set(key string, defaultValue any, wantReply bool, ops []protocol.DataStorageOperation) bool {
	if c.state < SlotConnected {
		return false
	}
	c.send(protocol.SetCmd{
		Cmd:        protocol.CmdSet,
		Key:        key,
		Default:    defaultValue,
		WantReply:  wantReply,
		Operations: ops,
	})
	return true
}

// SetNotify subscribes to change notifications for the given keys.
// Requires SlotConnected.
func (c *Client) SetNotify(keys []string) bool {
	if c.state < SlotConnected {
		return false
	}
	c.send(protocol.SetNotifyCmd{Cmd: protocol.CmdSetNotify, Keys: keys})
	return true
}
