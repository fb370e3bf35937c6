package progress

// Record marks one student's completion of one material. Row existence is the
// signal; rows are only ever written with completed = true.
type Record struct {
	Email       string `json:"email"`
	CourseID    string `json:"courseId"`
	MaterialID  string `json:"materialId"`
	Completed   bool   `json:"completed"`
	CompletedAt int64  `json:"completedAt"`
}

// CourseProgress is the derived per-course completion view.
type CourseProgress struct {
	TotalLessons       int `json:"totalLessons"`
	CompletedLessons   int `json:"completedLessons"`
	ProgressPercentage int `json:"progressPercentage"`
}

// Summary is the denormalized per-student aggregate row. It is written
// best-effort after reads and completions; the percentage path never depends
// on it.
type Summary struct {
	Email            string         `json:"email"`
	CourseID         string         `json:"courseId"`
	TotalLessons     int            `json:"totalLessons"`
	CompletedLessons int            `json:"completedLessons"`
	Percent          int            `json:"progressPercentage"`
	QuizScores       map[string]int `json:"quizScores"` // quizId -> best score
	LastActivity     int64          `json:"lastActivity"`
}
