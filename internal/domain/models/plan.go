package models

import "time"

// TradePlan is an AI-generated entry/stop/target suggestion for a symbol.
// It is produced wholesale by the external strategy endpoint and is not a
// brokerage order.
type TradePlan struct {
	Symbol      string    `json:"symbol"`
	Action      string    `json:"action"` // "long" | "short" | "wait"
	Entry       float64   `json:"entry"`
	Stop        float64   `json:"stop"`
	Target      float64   `json:"target"`
	Confidence  float64   `json:"confidence"` // 0..1
	Rationale   string    `json:"rationale"`
	SanityOK    bool      `json:"sanity_ok"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SanityCheck reports whether the plan's prices are ordered the way the
// stated action implies. The upstream model enforces nothing, so a failing
// plan is still served, just flagged.
func (p *TradePlan) SanityCheck() bool {
	switch p.Action {
	case "long":
		return p.Stop < p.Entry && p.Entry < p.Target
	case "short":
		return p.Target < p.Entry && p.Entry < p.Stop
	case "wait":
		return true
	default:
		return false
	}
}
