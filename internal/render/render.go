// Package render converts PrintJSON text nodes into plain or
// ANSI-colored strings, resolving player/item/location ids against a
// catalog supplied through the Context interface.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"apclient/internal/protocol"
)

// Format selects the renderer's output encoding.
type Format int

const (
	Text Format = iota
	Ansi
	HTML // declared unsupported; Render returns ErrUnsupported for it
)

// ErrUnsupported is returned for formats the renderer does not implement.
var ErrUnsupported = fmt.Errorf("render: unsupported format")

// Context is the read-only view into catalog and slot state the
// renderer needs to resolve node text and default colors. It is a
// non-owning relation used only while a Render call is in progress.
type Context interface {
	PlayerAlias(slot int) string
	ItemName(id int64, game string) string
	LocationName(id int64, game string) string
	GameOf(player int) string
	OwnSlot() int
}

const esc = "\x1b"

var ansiColors = map[string]string{
	"red":       esc + "[31m",
	"green":     esc + "[32m",
	"yellow":    esc + "[33m",
	"blue":      esc + "[34m",
	"magenta":   esc + "[35m",
	"cyan":      esc + "[36m",
	"plum":      esc + "[38:5:219m",
	"slateblue": esc + "[38:5:62m",
	"salmon":    esc + "[38:5:210m",
	"grey":      esc + "[90m",
	"gray":      esc + "[90m",
}

const ansiReset = esc + "[0m"

func colorToAnsi(color string) string {
	if seq, ok := ansiColors[color]; ok {
		return seq
	}
	return ansiReset
}

func deansify(text string) string {
	return strings.ReplaceAll(text, esc, " ")
}

// Render converts msg into text or ANSI-colored text. It is
// idempotent: calling it twice on the same nodes yields identical
// output.
func Render(msg []protocol.TextNode, format Format, ctx Context) (string, error) {
	if format == HTML {
		return "", ErrUnsupported
	}

	var out strings.Builder
	colorIsSet := false
	for _, node := range msg {
		color, text := resolveNode(node, ctx)
		if format != Ansi {
			color = ""
		}

		if format == Ansi {
			if color == "" && colorIsSet {
				out.WriteString(ansiReset)
				colorIsSet = false
			} else if color != "" {
				out.WriteString(colorToAnsi(color))
				colorIsSet = true
			}
			out.WriteString(deansify(text))
		} else {
			out.WriteString(text)
		}
	}
	if format == Ansi && colorIsSet {
		out.WriteString(ansiReset)
	}
	return out.String(), nil
}

func resolveNode(node protocol.TextNode, ctx Context) (color, text string) {
	color = node.Color

	switch node.Type {
	case "player_id":
		slot, _ := strconv.Atoi(node.Text)
		if color == "" {
			if slot == ctx.OwnSlot() {
				color = "magenta"
			} else {
				color = "yellow"
			}
		}
		text = ctx.PlayerAlias(slot)

	case "item_id":
		id, _ := strconv.ParseInt(node.Text, 10, 64)
		if color == "" {
			switch {
			case node.Flags.Has(protocol.ItemFlagAdvancement):
				color = "plum"
			case node.Flags.Has(protocol.ItemFlagNeverExclude):
				color = "slateblue"
			case node.Flags.Has(protocol.ItemFlagTrap):
				color = "salmon"
			default:
				color = "cyan"
			}
		}
		text = ctx.ItemName(id, ctx.GameOf(node.Player))

	case "location_id":
		id, _ := strconv.ParseInt(node.Text, 10, 64)
		if color == "" {
			color = "blue"
		}
		text = ctx.LocationName(id, ctx.GameOf(node.Player))

	case "hint_status":
		if color == "" {
			color = hintStatusColor(node.HintStatus)
		}
		text = node.Text

	default:
		text = node.Text
	}
	return color, text
}

func hintStatusColor(status protocol.HintStatus) string {
	switch status {
	case protocol.HintStatusFound:
		return "green"
	case protocol.HintStatusUnspecified:
		return "grey"
	case protocol.HintStatusNoPriority:
		return "slateblue"
	case protocol.HintStatusAvoid:
		return "salmon"
	case protocol.HintStatusPriority:
		return "plum"
	default:
		return "red"
	}
}
