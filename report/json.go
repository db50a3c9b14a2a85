// Package report renders decisions for people and other programs.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rustyeddy/payout/decision"
)

// JSON encodes d. Pretty output is indented two spaces.
func JSON(d *decision.Decision, pretty bool) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(d, "", "  ")
	} else {
		b, err = json.Marshal(d)
	}
	if err != nil {
		return nil, fmt.Errorf("encode decision: %w", err)
	}
	return b, nil
}

// WriteJSON writes d followed by a newline.
func WriteJSON(w io.Writer, d *decision.Decision, pretty bool) error {
	b, err := JSON(d, pretty)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write decision: %w", err)
	}
	return nil
}

// ParseJSON decodes a decision written by JSON.
func ParseJSON(b []byte) (*decision.Decision, error) {
	var d decision.Decision
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decode decision: %w", err)
	}
	return &d, nil
}
