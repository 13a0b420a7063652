package wire

import (
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// Envelope is the outer structure of an inbound frame. Msg and Subscriptions alias the scanned buffer.
type Envelope struct {
	ID            *uint64
	Type          string
	SID           *uint64
	Seq           *uint64
	Msg           []byte
	Subscriptions []byte
}

var errMissingType = errors.New("missing type")

// ScanEnvelope reads the top-level envelope fields without copying the payload.
func ScanEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	hasType := false
	err := jsonparser.ObjectEach(data, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
		switch string(key) {
		case "id":
			v, err := parseUint(vt, value)
			if err != nil {
				return fmt.Errorf("id: %w", err)
			}
			env.ID = v
		case "sid":
			v, err := parseUint(vt, value)
			if err != nil {
				return fmt.Errorf("sid: %w", err)
			}
			env.SID = v
		case "seq":
			v, err := parseUint(vt, value)
			if err != nil {
				return fmt.Errorf("seq: %w", err)
			}
			env.Seq = v
		case "type":
			if vt != jsonparser.String {
				return fmt.Errorf("type: expected string, got %s", vt)
			}
			s, err := jsonparser.ParseString(value)
			if err != nil {
				return fmt.Errorf("type: %w", err)
			}
			env.Type = s
			hasType = true
		case "msg":
			env.Msg = rawValue(vt, value)
		case "subscriptions":
			env.Subscriptions = rawValue(vt, value)
		}
		return nil
	})
	if err != nil {
		return Envelope{}, err
	}
	if !hasType {
		return Envelope{}, errMissingType
	}
	return env, nil
}

func parseUint(vt jsonparser.ValueType, value []byte) (*uint64, error) {
	switch vt {
	case jsonparser.Null:
		return nil, nil
	case jsonparser.Number:
		n, err := jsonparser.ParseInt(value)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("negative value %d", n)
		}
		u := uint64(n)
		return &u, nil
	default:
		return nil, fmt.Errorf("expected number, got %s", vt)
	}
}

// rawValue returns the JSON text of a scanned value. Null counts as absent. Strings are
// returned without quotes by the scanner, so they are re-quoted into a fresh slice.
func rawValue(vt jsonparser.ValueType, value []byte) []byte {
	switch vt {
	case jsonparser.Null, jsonparser.NotExist:
		return nil
	case jsonparser.String:
		out := make([]byte, 0, len(value)+2)
		out = append(out, '"')
		out = append(out, value...)
		return append(out, '"')
	default:
		return value
	}
}

// missingKeys reports the first required key absent (or null) in obj. A key written as
// "a|b" is satisfied by either spelling.
func missingKeys(obj []byte, required []string) error {
	if len(required) == 0 {
		return nil
	}
	var paths [][]string
	var group []int
	for i, field := range required {
		for _, alt := range splitAlternatives(field) {
			paths = append(paths, []string{alt})
			group = append(group, i)
		}
	}
	seen := make([]bool, len(required))
	jsonparser.EachKey(obj, func(idx int, _ []byte, vt jsonparser.ValueType, err error) {
		if err == nil && vt != jsonparser.Null {
			seen[group[idx]] = true
		}
	}, paths...)
	for i, ok := range seen {
		if !ok {
			return fmt.Errorf("missing field %q", required[i])
		}
	}
	return nil
}

func splitAlternatives(field string) []string {
	var out []string
	start := 0
	for i := 0; i < len(field); i++ {
		if field[i] == '|' {
			out = append(out, field[start:i])
			start = i + 1
		}
	}
	return append(out, field[start:])
}
