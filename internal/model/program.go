package model

import "time"

// Program is a funded scholarship offering.
type Program struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Award              int64     `json:"award"`
	MinScore           int       `json:"min_score"`
	TotalSeats         int       `json:"total_seats"`
	RequiredAttendance int       `json:"required_attendance"`
	RequiredAcademic   int       `json:"required_academic"`
	Active             bool      `json:"active"`
	Balance            int64     `json:"balance"`
	SeatsFilled        int       `json:"seats_filled"`
	CreatedBy          string    `json:"created_by"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// SeatsLeft returns the number of seats that can still be paid out.
func (p *Program) SeatsLeft() int {
	left := p.TotalSeats - p.SeatsFilled
	if left < 0 {
		return 0
	}
	return left
}

// ProgramSpec is the administrator's input for a new program.
type ProgramSpec struct {
	Name               string `json:"name" yaml:"name" binding:"required,notblank,max=255"`
	Award              int64  `json:"award" yaml:"award" binding:"min=0"`
	MinScore           int    `json:"min_score" yaml:"min_score" binding:"min=0,max=100"`
	TotalSeats         int    `json:"total_seats" yaml:"total_seats" binding:"required,min=1"`
	RequiredAttendance int    `json:"required_attendance" yaml:"required_attendance" binding:"min=0,max=100"`
	RequiredAcademic   int    `json:"required_academic" yaml:"required_academic" binding:"min=0,max=100"`
	Deposit            int64  `json:"deposit" yaml:"deposit" binding:"min=0"`
}

// FundProgramRequest tops up a program's escrow balance.
type FundProgramRequest struct {
	Amount int64 `json:"amount" binding:"required,min=1"`
}
