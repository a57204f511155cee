package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownStrategy = errors.New("models: unknown strategy")

// Strategy is a named capital split between the two assets of a pair.
type Strategy int

const (
	StrategyNeutral Strategy = iota
	StrategyBullish
	StrategyBearish
	StrategyDefensive
)

// StrategyProfile is the immutable descriptor behind a Strategy.
// RatioA + RatioB is always 1.
type StrategyProfile struct {
	Name      string  `json:"name"`
	RatioA    float64 `json:"ratio_a"`
	RatioB    float64 `json:"ratio_b"`
	Label     string  `json:"label"`
	Rationale string  `json:"rationale"`
}

// Strategies lists every strategy in display order.
func Strategies() []Strategy {
	return []Strategy{StrategyNeutral, StrategyBullish, StrategyBearish, StrategyDefensive}
}

// Profile returns the descriptor of s.
func (s Strategy) Profile() StrategyProfile {
	switch s {
	case StrategyNeutral:
		return StrategyProfile{
			Name: "neutral", RatioA: 0.5, RatioB: 0.5,
			Label:     "Neutral 50/50",
			Rationale: "Equal capital in both assets; the range is symmetric around spot.",
		}
	case StrategyBullish:
		return StrategyProfile{
			Name: "bullish", RatioA: 0.7, RatioB: 0.3,
			Label:     "Bullish 70/30",
			Rationale: "Overweights the base asset; the range reaches further below spot to keep accumulating on dips.",
		}
	case StrategyBearish:
		return StrategyProfile{
			Name: "bearish", RatioA: 0.3, RatioB: 0.7,
			Label:     "Bearish 30/70",
			Rationale: "Overweights the quote asset; the range reaches further above spot to sell into rallies.",
		}
	case StrategyDefensive:
		return StrategyProfile{
			Name: "defensive", RatioA: 0.2, RatioB: 0.8,
			Label:     "Defensive 20/80",
			Rationale: "Mostly quote-asset exposure with a tight downside bound.",
		}
	default:
		panic(fmt.Sprintf("models: strategy %d has no profile", int(s)))
	}
}

func (s Strategy) String() string {
	switch s {
	case StrategyNeutral:
		return "neutral"
	case StrategyBullish:
		return "bullish"
	case StrategyBearish:
		return "bearish"
	case StrategyDefensive:
		return "defensive"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy resolves a strategy by name, ignoring case and surrounding
// space. An empty name is an unknown strategy; callers that want a default
// supply "neutral" themselves.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "neutral":
		return StrategyNeutral, nil
	case "bullish":
		return StrategyBullish, nil
	case "bearish":
		return StrategyBearish, nil
	case "defensive":
		return StrategyDefensive, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

func (s Strategy) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Strategy) UnmarshalText(b []byte) error {
	v, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
