// Package schema defines Kalshi domain enums and fixed-point value types shared by the REST and streaming paths.
package schema

import (
	"strings"

	json "github.com/goccy/go-json"
)

// unknownValue is the fallback spelling for enum values the client does not model.
const unknownValue = "unknown"

func decodeEnum(data []byte, known ...string) (string, error) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", err
	}
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for _, candidate := range known {
		if normalized == candidate {
			return candidate, nil
		}
	}
	return unknownValue, nil
}

// YesNo identifies a binary contract side.
type YesNo string

const (
	// Yes is the yes side of a binary market.
	Yes YesNo = "yes"
	// No is the no side of a binary market.
	No YesNo = "no"
	// YesNoUnknown captures side values the client does not recognise.
	YesNoUnknown YesNo = unknownValue
)

// UnmarshalJSON maps unrecognised sides to YesNoUnknown.
func (v *YesNo) UnmarshalJSON(data []byte) error {
	s, err := decodeEnum(data, string(Yes), string(No))
	if err != nil {
		return err
	}
	*v = YesNo(s)
	return nil
}

// Opposite returns the other side of the contract.
func (v YesNo) Opposite() YesNo {
	switch v {
	case Yes:
		return No
	case No:
		return Yes
	default:
		return YesNoUnknown
	}
}

// BuySell identifies an order action.
type BuySell string

const (
	// Buy opens or increases a position.
	Buy BuySell = "buy"
	// Sell closes or reduces a position.
	Sell BuySell = "sell"
	// BuySellUnknown captures action values the client does not recognise.
	BuySellUnknown BuySell = unknownValue
)

// UnmarshalJSON maps unrecognised actions to BuySellUnknown.
func (v *BuySell) UnmarshalJSON(data []byte) error {
	s, err := decodeEnum(data, string(Buy), string(Sell))
	if err != nil {
		return err
	}
	*v = BuySell(s)
	return nil
}

// TradeTakerSide identifies the taker side of a public trade.
type TradeTakerSide string

const (
	TakerYes     TradeTakerSide = "yes"
	TakerNo      TradeTakerSide = "no"
	TakerUnknown TradeTakerSide = unknownValue
)

// UnmarshalJSON maps unrecognised taker sides to TakerUnknown.
func (v *TradeTakerSide) UnmarshalJSON(data []byte) error {
	s, err := decodeEnum(data, string(TakerYes), string(TakerNo))
	if err != nil {
		return err
	}
	*v = TradeTakerSide(s)
	return nil
}
