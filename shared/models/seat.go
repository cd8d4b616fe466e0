package models

// SeatStatus is the derived display state of a seat cell
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusOccupied  SeatStatus = "occupied"
	SeatStatusSelected  SeatStatus = "selected"
	SeatStatusFree      SeatStatus = "free"
)

// SeatType is a display attribute of a seat cell
type SeatType string

const (
	SeatTypeStandard     SeatType = ""
	SeatTypeExit         SeatType = "exit"
	SeatTypeNonReclining SeatType = "non-reclining"
)

// Seat represents one cell of the aircraft seat map
type Seat struct {
	ID         string     `json:"id"`
	Row        int        `json:"row"`
	Column     string     `json:"column"`
	Price      float64    `json:"price"`
	Status     SeatStatus `json:"status"`
	Type       SeatType   `json:"type,omitempty"`
	Selectable bool       `json:"selectable"`
}

// SeatRow is one row of the seat map; the aisle sits after AisleAfter cells
type SeatRow struct {
	Number     int    `json:"number"`
	AisleAfter int    `json:"aisleAfter"`
	Seats      []Seat `json:"seats"`
}

// SeatMap is the full seat map for the current booking session
type SeatMap struct {
	ResultIndex string    `json:"resultIndex"`
	MaxSeats    int       `json:"maxSeats"`
	Selected    []string  `json:"selected"`
	Rows        []SeatRow `json:"rows"`
}
