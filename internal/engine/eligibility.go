package engine

import (
	"fmt"

	"github.com/stemsi/scholardist/internal/model"
)

// Evaluate checks raw metrics against a program's thresholds. Both bounds
// are inclusive. It returns nil when eligible, otherwise an
// *IneligibleError naming every failed threshold.
func Evaluate(p *model.Program, attendance, academic int) error {
	var reasons []string
	if attendance < p.RequiredAttendance {
		reasons = append(reasons, fmt.Sprintf("attendance %d is below required %d", attendance, p.RequiredAttendance))
	}
	if academic < p.RequiredAcademic {
		reasons = append(reasons, fmt.Sprintf("academic mark %d is below required %d", academic, p.RequiredAcademic))
	}
	if len(reasons) > 0 {
		return &IneligibleError{Reasons: reasons}
	}
	return nil
}
