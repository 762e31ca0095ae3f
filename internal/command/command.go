// Package command defines the protocol-ready command objects produced by
// data policies and consumed by output modules.
//
// A nil Command means "no signal" for that output on this tick. Modules
// treat it as zero.
package command

import "fmt"

// Command is the closed set of output commands.
type Command interface {
	isCommand()
}

// Byte is an 8-bit level (DMX, Renard, ...).
type Byte uint8

// Word is a 16-bit level for fine channels.
type Word uint16

// RGB is a colour command for pixel outputs.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func (Byte) isCommand() {}
func (Word) isCommand() {}
func (RGB) isCommand()  {}

// Level reduces any command to an 8-bit level. RGB uses its brightest
// component; nil is zero.
func Level(c Command) uint8 {
	switch v := c.(type) {
	case nil:
		return 0
	case Byte:
		return uint8(v)
	case Word:
		return uint8(v >> 8)
	case RGB:
		return max(v.R, v.G, v.B)
	default:
		return 0
	}
}

// Color reduces any command to an RGB triple. Levels become grey.
func Color(c Command) RGB {
	switch v := c.(type) {
	case nil:
		return RGB{}
	case RGB:
		return v
	default:
		l := Level(v)
		return RGB{R: l, G: l, B: l}
	}
}

// Describe renders a command for logs and the API.
func Describe(c Command) string {
	switch v := c.(type) {
	case nil:
		return "none"
	case Byte:
		return fmt.Sprintf("byte(%d)", uint8(v))
	case Word:
		return fmt.Sprintf("word(%d)", uint16(v))
	case RGB:
		return fmt.Sprintf("rgb(%d,%d,%d)", v.R, v.G, v.B)
	default:
		return fmt.Sprintf("%T", v)
	}
}
