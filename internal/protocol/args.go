package protocol

// PrintJSONArgs is the canonical, owned-value shape of a PrintJSON
// command. It replaces the original client's several overloaded
// set_print_json_handler signatures with a single struct; callers that
// want the richer convenience callbacks build their own adapters on top.
type PrintJSONArgs struct {
	Data      []TextNode
	Type      string
	Receiving Optional[int]
	Item      Optional[NetworkItem]
	Found     Optional[bool]
	Team      Optional[int]
	Slot      Optional[int]
	Message   Optional[string]
	Tags      Optional[[]string]
	Countdown Optional[int]
}

// ParsePrintJSONArgs converts a decoded PrintJSONCmd into PrintJSONArgs.
func ParsePrintJSONArgs(cmd PrintJSONCmd) PrintJSONArgs {
	args := PrintJSONArgs{
		Data: cmd.Data,
		Type: cmd.Type,
	}
	if cmd.Receiving != nil {
		args.Receiving = Some(*cmd.Receiving)
	}
	if cmd.Item != nil {
		item := *cmd.Item
		item.Index = -1
		args.Item = Some(item)
	}
	if cmd.Found != nil {
		args.Found = Some(*cmd.Found)
	}
	if cmd.Team != nil {
		args.Team = Some(*cmd.Team)
	}
	if cmd.Slot != nil {
		args.Slot = Some(*cmd.Slot)
	}
	if cmd.Message != nil {
		args.Message = Some(*cmd.Message)
	}
	if cmd.Tags != nil {
		args.Tags = Some(cmd.Tags)
	}
	if cmd.Countdown != nil {
		args.Countdown = Some(*cmd.Countdown)
	}
	return args
}
