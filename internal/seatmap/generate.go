package seatmap

import "github.com/cx-tal-miterani/flight-storefront/shared/models"

// Generate builds the full seat map for the given selection and occupied set.
func Generate(selection []string, occupied SeatSet) []models.SeatRow {
	rows := make([]models.SeatRow, 0, Rows)
	for row := 1; row <= Rows; row++ {
		seats := make([]models.Seat, 0, len(Columns))
		for col := 0; col < len(Columns); col++ {
			p := Position{Row: row, Col: col}
			id := p.ID()
			price := p.price()
			st := status(id, price, selection, occupied)
			seats = append(seats, models.Seat{
				ID:         id,
				Row:        row,
				Column:     p.Letter(),
				Price:      price,
				Status:     st,
				Type:       p.seatType(),
				Selectable: st != models.SeatStatusOccupied && !p.exitBlocked(),
			})
		}
		rows = append(rows, models.SeatRow{Number: row, AisleAfter: AisleAfter, Seats: seats})
	}
	return rows
}
