package protocol

// ClientStatus is the wire enumeration reported via StatusUpdate.
type ClientStatus int

const (
	ClientStatusUnknown ClientStatus = 0
	ClientStatusReady   ClientStatus = 10
	ClientStatusPlaying ClientStatus = 20
	ClientStatusGoal    ClientStatus = 30
)

// HintStatus is the wire enumeration for a (player, location) hint.
type HintStatus int

const (
	HintStatusUnspecified HintStatus = 0
	HintStatusNoPriority  HintStatus = 10
	HintStatusAvoid       HintStatus = 20
	HintStatusPriority    HintStatus = 30
	HintStatusFound       HintStatus = 40
)

// ItemFlags is a bitset carried on NetworkItem.
type ItemFlags uint

const (
	ItemFlagNone         ItemFlags = 0
	ItemFlagAdvancement  ItemFlags = 1
	ItemFlagNeverExclude ItemFlags = 2
	ItemFlagTrap         ItemFlags = 4
)

func (f ItemFlags) Has(bit ItemFlags) bool {
	return f&bit != 0
}

// SlotType enumerates NetworkSlot.Type.
type SlotType int

const (
	SlotTypeSpectator SlotType = 0
	SlotTypePlayer    SlotType = 1
	SlotTypeGroup     SlotType = 2
)
