package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Text is a title, body or label that arrives either as a plain string
// (raw fetcher output) or as a bilingual {en, zh} pair (processed briefings).
// The zero value is an empty plain string.
type Text struct {
	EN string
	ZH string

	bilingual bool
}

// Plain wraps a single-language string.
func Plain(s string) Text {
	return Text{EN: s}
}

// Bilingual builds an {en, zh} pair.
func Bilingual(en, zh string) Text {
	return Text{EN: en, ZH: zh, bilingual: true}
}

// IsBilingual reports whether the value was built or decoded as an {en, zh} pair.
func (t Text) IsBilingual() bool { return t.bilingual }

// IsZero reports whether both sides are empty. Used by the omitzero tag.
func (t Text) IsZero() bool { return t.EN == "" && t.ZH == "" }

// English returns the comparable side of the text. For plain strings that is
// the string itself, whatever its script.
func (t Text) English() string { return t.EN }

// Pair returns the value as a bilingual pair. A plain string fills both sides.
func (t Text) Pair() Text {
	if t.bilingual {
		return t
	}
	return Bilingual(t.EN, t.EN)
}

// String implements fmt.Stringer.
func (t Text) String() string {
	if t.EN != "" {
		return t.EN
	}
	return t.ZH
}

// MarshalJSON writes a plain string or an {en, zh} object.
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.bilingual {
		return json.Marshal(t.EN)
	}
	return json.Marshal(struct {
		EN string `json:"en"`
		ZH string `json:"zh"`
	}{t.EN, t.ZH})
}

// UnmarshalJSON accepts a string, an {en, zh} object or null.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = Text{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Plain(s)
		return nil
	case data[0] == '{':
		var pair struct {
			EN string `json:"en"`
			ZH string `json:"zh"`
		}
		if err := json.Unmarshal(data, &pair); err != nil {
			return err
		}
		*t = Bilingual(pair.EN, pair.ZH)
		return nil
	default:
		// numbers and booleans show up in hand-edited raw files
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*t = Plain(strings.TrimSpace(fmt.Sprint(v)))
		return nil
	}
}
