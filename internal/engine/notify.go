package engine

import (
	"fmt"
	"strings"
)

// NotificationKind distinguishes the two alert families
type NotificationKind string

const (
	NotifyRecommendation NotificationKind = "recommendation"
	NotifyPriceLow       NotificationKind = "price_low"
	NotifyPriceHigh      NotificationKind = "price_high"
)

// Notification is a single alert handed to the presentation layer
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
}

// Toggles enables or disables the per-direction price alerts. The
// recommendation alert is always on.
type Toggles struct {
	LowPrice  bool `json:"low_price" mapstructure:"low_price"`
	HighPrice bool `json:"high_price" mapstructure:"high_price"`
}

// Explicit unset sentinels, distinct from every real tier/status value,
// so the first observation after startup records state without firing.
const (
	tierUnset   Tier   = ""
	statusUnset Status = ""
)

// Notifier is the edge-triggered alert policy. It fires only on entry
// into a qualifying state (status -> go, tier -> low/high), never while
// remaining in one or on leaving it.
type Notifier struct {
	lastTier   Tier
	lastStatus Status
}

// NewNotifier returns a notifier with both markers unset.
func NewNotifier() *Notifier {
	return &Notifier{lastTier: tierUnset, lastStatus: statusUnset}
}

// Evaluate observes one recomputation and decides whether to alert.
// A recommendation-status edge to go wins over a price-tier edge; the
// price check is suppressed for that cycle, though the tier observation
// is still recorded.
func (n *Notifier) Evaluate(state RecommendationState, current *HourlyRecord, toggles Toggles) *Notification {
	statusEdge := n.lastStatus != statusUnset &&
		state.Overall != n.lastStatus &&
		state.Overall == StatusGo

	var tier Tier
	var tierEdge bool
	if current != nil {
		tier = current.Tier
		tierEdge = n.lastTier != tierUnset && tier != n.lastTier
	}

	n.lastStatus = state.Overall
	if current != nil {
		n.lastTier = tier
	}

	if statusEdge {
		return &Notification{
			Kind:    NotifyRecommendation,
			Title:   "Good time to use power",
			Message: recommendationSummary(state.Recommendations),
		}
	}

	if tierEdge {
		switch {
		case tier == TierLow && toggles.LowPrice:
			msg := "Electricity is cheap right now"
			if current != nil {
				msg = fmt.Sprintf("Electricity is cheap right now: %.2f %s/MWh", current.Display, current.Currency)
			}
			return &Notification{Kind: NotifyPriceLow, Title: "Low price", Message: msg}
		case tier == TierHigh && toggles.HighPrice:
			msg := "Electricity is expensive right now"
			if current != nil {
				msg = fmt.Sprintf("Electricity is expensive right now: %.2f %s/MWh", current.Display, current.Currency)
			}
			return &Notification{Kind: NotifyPriceHigh, Title: "High price", Message: msg}
		}
	}

	return nil
}

// Reset clears both markers back to unset, as after a fresh start.
func (n *Notifier) Reset() {
	n.lastTier = tierUnset
	n.lastStatus = statusUnset
}

func recommendationSummary(recs []Recommendation) string {
	if len(recs) == 0 {
		return MessageGo
	}
	parts := make([]string, 0, len(recs))
	for _, r := range recs {
		parts = append(parts, fmt.Sprintf("%s: %s (%s)", activityLabel(r.Activity), r.Quality, r.Reason))
	}
	return strings.Join(parts, "; ")
}

func activityLabel(a Activity) string {
	switch a {
	case ActivityEVCharging:
		return "EV charging"
	case ActivityLaundry:
		return "Laundry"
	default:
		return string(a)
	}
}
