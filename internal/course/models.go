package course

// Material is one row of the flat polymorphic course_materials collection.
// Type decides which of the optional fields are meaningful; parent linkage is
// by value-matched foreign keys only (no enforcement below the write path).
type Material struct {
	ID           string `json:"id"`
	Type         Type   `json:"type"`
	CourseID     string `json:"courseId,omitempty"`
	SectionID    string `json:"sectionId,omitempty"`
	SubSectionID string `json:"subSectionId,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
	IsLocked    bool   `json:"isLocked,omitempty"`

	// pdf
	PDFURL  string `json:"pdfUrl,omitempty"`
	BlobKey string `json:"blobKey,omitempty"`

	// video
	VideoURL      string `json:"videoUrl,omitempty"`
	VideoDuration int64  `json:"videoDuration,omitempty"` // seconds
	VideoSize     int64  `json:"videoSize,omitempty"`     // bytes
	VideoStatus   string `json:"videoStatus,omitempty"`   // uploading|ready
	VideoType     string `json:"videoType,omitempty"`     // mime type

	// quiz
	TimeLimit    int `json:"timeLimit,omitempty"`    // minutes, 0 = untimed
	PassingScore int `json:"passingScore,omitempty"` // percent
	MaxAttempts  int `json:"maxAttempts,omitempty"`  // 0 = unlimited
	TotalPoints  int `json:"totalPoints,omitempty"`

	CreatedAt int64 `json:"createdAt,omitempty"`
}

type Type string

const (
	TypeSection    Type = "section"
	TypeSubsection Type = "subsection"
	TypePDF        Type = "pdf"
	TypeVideo      Type = "video"
	TypeQuiz       Type = "quiz"
)

// Gradable reports whether a material counts toward course progress.
// Canonical rule: pdf and quiz rows only.
func (t Type) Gradable() bool { return t == TypePDF || t == TypeQuiz }

func (t Type) Valid() bool {
	switch t {
	case TypeSection, TypeSubsection, TypePDF, TypeVideo, TypeQuiz:
		return true
	}
	return false
}

// SubSection is a reconstructed subsection node: its own record plus ordered
// materials and at most one attached video.
type SubSection struct {
	Material
	Materials []Material `json:"materials"`
	Video     *Material  `json:"video,omitempty"`
}

// Section is a reconstructed top-level node: ordered subsections and quizzes.
type Section struct {
	Material
	SubSections []SubSection `json:"subSections"`
	Quizzes     []Material   `json:"quizzes"`
}
