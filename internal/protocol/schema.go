package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	packetSchema    *jsonschema.Schema
	commandSchemas  map[string]*jsonschema.Schema
)

func init() {
	compiler := jsonschema.NewCompiler()
	mustAdd(compiler, "packet.schema.json")
	mustAdd(compiler, "retrieved.schema.json")
	mustAdd(compiler, "setreply.schema.json")

	packetSchema = mustCompile(compiler, "packet.schema.json")
	commandSchemas = map[string]*jsonschema.Schema{
		CmdRetrieved: mustCompile(compiler, "retrieved.schema.json"),
		CmdSetReply:  mustCompile(compiler, "setreply.schema.json"),
	}
}

func mustAdd(c *jsonschema.Compiler, name string) {
	b, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("protocol: missing embedded schema %s: %v", name, err))
	}
	if err := c.AddResource(name, bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("protocol: bad embedded schema %s: %v", name, err))
	}
}

func mustCompile(c *jsonschema.Compiler, name string) *jsonschema.Schema {
	s, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("protocol: cannot compile schema %s: %v", name, err))
	}
	return s
}

// ValidateFrame checks that raw decodes into an array of objects each
// carrying a string cmd field, per the wire schema in spec section 6.
// It returns the decoded commands (still-raw, one per array element) on
// success so the caller can dispatch without re-parsing the envelope.
func ValidateFrame(raw []byte) ([]json.RawMessage, error) {
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("protocol: invalid JSON: %w", err)
	}
	if err := packetSchema.Validate(generic); err != nil {
		return nil, fmt.Errorf("protocol: packet schema violation: %w", err)
	}
	var commands []json.RawMessage
	if err := json.Unmarshal(raw, &commands); err != nil {
		return nil, fmt.Errorf("protocol: invalid JSON: %w", err)
	}
	for _, c := range commands {
		if err := ValidateCommand(c); err != nil {
			return nil, err
		}
	}
	return commands, nil
}

// ValidateCommand runs the per-cmd schema (if any is registered) against
// a single decoded command object.
func ValidateCommand(raw json.RawMessage) error {
	var base BaseCommand
	if err := json.Unmarshal(raw, &base); err != nil {
		return fmt.Errorf("protocol: invalid command JSON: %w", err)
	}
	schema, ok := commandSchemas[base.Cmd]
	if !ok {
		return nil
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("protocol: invalid command JSON: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return fmt.Errorf("protocol: %s schema violation: %w", base.Cmd, err)
	}
	return nil
}
