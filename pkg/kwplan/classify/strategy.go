package classify

import (
	"strings"

	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
)

// Strategy selects how match types are chosen for a keyword
type Strategy int

const (
	StrategyDefault Strategy = iota
	StrategyConservative
	StrategyAggressive
)

// Volume thresholds used by the match-type rules
const (
	HighVolume   = 5000
	MediumVolume = 1000
	ShortPhrase  = 3
)

// ParseStrategy maps configuration text to a Strategy. Anything that is not
// "conservative" or "aggressive" resolves to StrategyDefault.
func ParseStrategy(s string) Strategy {
	switch s {
	case "conservative":
		return StrategyConservative
	case "aggressive":
		return StrategyAggressive
	default:
		return StrategyDefault
	}
}

func (s Strategy) String() string {
	switch s {
	case StrategyConservative:
		return "conservative"
	case StrategyAggressive:
		return "aggressive"
	default:
		return "default"
	}
}

// signals are the inputs every strategy decides on
type signals struct {
	words  int
	volume int64
	brand  bool
}

func (s Strategy) decide(sig signals) keyword.MatchType {
	switch s {
	case StrategyConservative:
		if sig.brand || sig.volume > HighVolume {
			return keyword.MatchExact
		}
		return keyword.MatchPhrase
	case StrategyAggressive:
		if sig.volume > MediumVolume {
			return keyword.MatchExact
		}
		if sig.words <= ShortPhrase {
			return keyword.MatchPhrase
		}
		return keyword.MatchBroad
	default:
		switch {
		case sig.brand:
			return keyword.MatchExact
		case sig.volume > HighVolume && sig.words <= ShortPhrase:
			return keyword.MatchExact
		case sig.volume > MediumVolume:
			return keyword.MatchPhrase
		default:
			return keyword.MatchBroad
		}
	}
}

func newSignals(kw, adGroup string, volume int64) signals {
	return signals{
		words:  len(strings.Fields(kw)),
		volume: volume,
		brand:  strings.Contains(adGroup, "Brand"),
	}
}
