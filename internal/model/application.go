package model

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Application is one identity's submission against one program.
type Application struct {
	Seq               int64      `json:"-"`
	ProgramID         int64      `json:"program_id"`
	Identity          string     `json:"identity"`
	StudentName       string     `json:"student_name"`
	RegNumber         string     `json:"reg_number"`
	College           string     `json:"college"`
	Course            string     `json:"course"`
	AttendancePercent int        `json:"attendance_percent"`
	AcademicMark      int        `json:"academic_mark"`
	Score             int        `json:"score"`
	Received          bool       `json:"received"`
	ReceivedAt        *time.Time `json:"received_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ApplicationDetails is the applicant's eligibility data.
type ApplicationDetails struct {
	StudentName       string `json:"student_name" yaml:"student_name" binding:"required,notblank,max=100"`
	RegNumber         string `json:"reg_number" yaml:"reg_number" binding:"required,notblank,max=50"`
	College           string `json:"college" yaml:"college" binding:"required,notblank,max=255"`
	Course            string `json:"course" yaml:"course" binding:"required,notblank,max=255"`
	AttendancePercent int    `json:"attendance_percent" yaml:"attendance_percent" binding:"min=0,max=100"`
	AcademicMark      int    `json:"academic_mark" yaml:"academic_mark" binding:"min=0,max=100"`
}

// Normalize trims the free-text fields and folds them to Unicode NFC so the
// same name typed on different keyboards is stored identically.
func (d ApplicationDetails) Normalize() ApplicationDetails {
	clean := func(s string) string {
		return norm.NFC.String(strings.TrimSpace(s))
	}
	d.StudentName = clean(d.StudentName)
	d.RegNumber = clean(d.RegNumber)
	d.College = clean(d.College)
	d.Course = clean(d.Course)
	return d
}

// ApplicationListQuery filters a program's applications.
type ApplicationListQuery struct {
	Identity string `form:"identity" binding:"omitempty,wallet"`
}
