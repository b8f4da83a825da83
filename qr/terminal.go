package qr

import (
	"io"

	"github.com/mdp/qrterminal/v3"
)

// PrintTerminal writes payload as a QR code drawn with half-block
// characters, for previewing a marker in a terminal.
func PrintTerminal(w io.Writer, payload string) {
	qrterminal.GenerateWithConfig(payload, qrterminal.Config{
		Level:          qrterminal.H,
		Writer:         w,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
		QuietZone:      QuietZone,
	})
}
