package asset

import (
	"fmt"
	"strings"
)

// Symbol identifies a tradable currency pair. The set is closed: only the
// declared constants are valid.
type Symbol int

const (
	AUDCAD Symbol = iota + 1
	AUDCHF
	AUDHKD
	AUDJPY
	AUDNZD
	AUDSGD
	AUDUSD
	CADCHF
	CADHKD
	CADJPY
	CADSGD
	CHFHKD
	CHFJPY
	CHFZAR
	EURAUD
	EURCAD
	EURCHF
	EURCZK
	EURDKK
	EURGBP
	EURHKD
	EURHUF
	EURJPY
	EURNOK
	EURNZD
	EURPLN
	EURSEK
	EURSGD
	EURTRY
	EURUSD
	EURZAR
	GBPAUD
	GBPCAD
	GBPCHF
	GBPHKD
	GBPJPY
	GBPNZD
	GBPPLN
	GBPSGD
	GBPUSD
	GBPZAR
	HKDJPY
	NZDCAD
	NZDCHF
	NZDHKD
	NZDJPY
	NZDSGD
	NZDUSD
	SGDCHF
	SGDHKD
	SGDJPY
	TRYJPY
	USDCAD
	USDCHF
	USDCNH
	USDCZK
	USDDKK
	USDHKD
	USDHUF
	USDINR
	USDJPY
	USDMXN
	USDNOK
	USDPLN
	USDSAR
	USDSEK
	USDSGD
	USDTHB
	USDTRY
	USDZAR
	ZARJPY
)

const symbolCount = int(ZARJPY)

var symbolNames = [...]string{
	AUDCAD: "AUDCAD",
	AUDCHF: "AUDCHF",
	AUDHKD: "AUDHKD",
	AUDJPY: "AUDJPY",
	AUDNZD: "AUDNZD",
	AUDSGD: "AUDSGD",
	AUDUSD: "AUDUSD",
	CADCHF: "CADCHF",
	CADHKD: "CADHKD",
	CADJPY: "CADJPY",
	CADSGD: "CADSGD",
	CHFHKD: "CHFHKD",
	CHFJPY: "CHFJPY",
	CHFZAR: "CHFZAR",
	EURAUD: "EURAUD",
	EURCAD: "EURCAD",
	EURCHF: "EURCHF",
	EURCZK: "EURCZK",
	EURDKK: "EURDKK",
	EURGBP: "EURGBP",
	EURHKD: "EURHKD",
	EURHUF: "EURHUF",
	EURJPY: "EURJPY",
	EURNOK: "EURNOK",
	EURNZD: "EURNZD",
	EURPLN: "EURPLN",
	EURSEK: "EURSEK",
	EURSGD: "EURSGD",
	EURTRY: "EURTRY",
	EURUSD: "EURUSD",
	EURZAR: "EURZAR",
	GBPAUD: "GBPAUD",
	GBPCAD: "GBPCAD",
	GBPCHF: "GBPCHF",
	GBPHKD: "GBPHKD",
	GBPJPY: "GBPJPY",
	GBPNZD: "GBPNZD",
	GBPPLN: "GBPPLN",
	GBPSGD: "GBPSGD",
	GBPUSD: "GBPUSD",
	GBPZAR: "GBPZAR",
	HKDJPY: "HKDJPY",
	NZDCAD: "NZDCAD",
	NZDCHF: "NZDCHF",
	NZDHKD: "NZDHKD",
	NZDJPY: "NZDJPY",
	NZDSGD: "NZDSGD",
	NZDUSD: "NZDUSD",
	SGDCHF: "SGDCHF",
	SGDHKD: "SGDHKD",
	SGDJPY: "SGDJPY",
	TRYJPY: "TRYJPY",
	USDCAD: "USDCAD",
	USDCHF: "USDCHF",
	USDCNH: "USDCNH",
	USDCZK: "USDCZK",
	USDDKK: "USDDKK",
	USDHKD: "USDHKD",
	USDHUF: "USDHUF",
	USDINR: "USDINR",
	USDJPY: "USDJPY",
	USDMXN: "USDMXN",
	USDNOK: "USDNOK",
	USDPLN: "USDPLN",
	USDSAR: "USDSAR",
	USDSEK: "USDSEK",
	USDSGD: "USDSGD",
	USDTHB: "USDTHB",
	USDTRY: "USDTRY",
	USDZAR: "USDZAR",
	ZARJPY: "ZARJPY",
}

// String returns the pair code, e.g. "EURUSD".
func (s Symbol) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("Symbol(%d)", int(s))
	}
	return symbolNames[s]
}

// IsValid reports whether s is one of the declared symbols.
func (s Symbol) IsValid() bool { return s >= AUDCAD && s <= ZARJPY }

// Symbols returns every declared symbol in declaration order.
func Symbols() []Symbol {
	out := make([]Symbol, 0, symbolCount)
	for s := AUDCAD; s <= ZARJPY; s++ {
		out = append(out, s)
	}
	return out
}

// ParseSymbol parses a pair code, ignoring case and surrounding blanks.
func ParseSymbol(str string) (Symbol, error) {
	code := strings.ToUpper(strings.TrimSpace(str))
	for s := AUDCAD; s <= ZARJPY; s++ {
		if symbolNames[s] == code {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown symbol %q", str)
}

// MarshalText implements encoding.TextMarshaler.
func (s Symbol) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid symbol %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Symbol) UnmarshalText(text []byte) error {
	v, err := ParseSymbol(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
