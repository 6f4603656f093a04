package model

// PositionSide distinguishes long and short markers.
type PositionSide string

const (
	SideLong  PositionSide = "long"
	SideShort PositionSide = "short"
)

// Position is an open-position marker drawn on the chart.
// Markers are owned by the facade and survive theme and chart-type changes.
type Position struct {
	Time  int64        `json:"time"` // entry bar time, unix seconds
	Price float64      `json:"price"`
	Side  PositionSide `json:"side"`
	Qty   float64      `json:"qty"`
	Label string       `json:"label,omitempty"`
}
