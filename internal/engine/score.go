package engine

const (
	attendanceWeight = 4
	academicWeight   = 6
	weightTotal      = attendanceWeight + academicWeight
)

// Score combines attendance and academic mark into the ranking score:
// a 40/60 weighted average truncated to an integer.
func Score(attendance, academic int) int {
	return (attendanceWeight*attendance + academicWeight*academic) / weightTotal
}
