package model

import "time"

type QuestionType string

const (
	TypeText        QuestionType = "text"
	TypeNumeric     QuestionType = "numeric"
	TypeDate        QuestionType = "date"
	TypeCoordinates QuestionType = "coordinates"
	TypeDropdown    QuestionType = "dropdown"
	TypeImage       QuestionType = "image"
)

type Role string

const (
	RoleCreator Role = "CREATOR"
	RoleViewer  Role = "VIEWER"
	RoleSolver  Role = "SOLVER"
)

// KnownRole reports whether a stored role identifier maps to a known role.
// Unknown identifiers are treated as no access.
func KnownRole(r Role) bool {
	switch r {
	case RoleCreator, RoleViewer, RoleSolver:
		return true
	}
	return false
}

type Form struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Question struct {
	ID      int          `json:"question_id"`
	FormID  int          `json:"form_id,omitempty"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Options []Option     `json:"options,omitempty"`
}

type Option struct {
	ID   int    `json:"option_id"`
	Text string `json:"option_text"`
}

type Submission struct {
	ID          int       `json:"submission_id"`
	FormID      int       `json:"form_id"`
	UserID      int       `json:"user_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SubmissionDetails identifies who answered and when.
type SubmissionDetails struct {
	User        string    `json:"user"`
	Email       string    `json:"email"`
	SubmittedAt time.Time `json:"submission_time"`
}

type AnswerKind string

const (
	AnswerText  AnswerKind = "text"
	AnswerImage AnswerKind = "image"
	AnswerNone  AnswerKind = "none"
)

// AnswerValue is the tagged value every answer normalizes to. Text-like
// answers (text, numeric, date, coordinates, dropdown) carry their display
// text in Value; image answers carry a base64 payload plus the answer id so
// callers can build a retrieval link without re-fetching bytes.
type AnswerValue struct {
	Type     AnswerKind `json:"type"`
	Value    string     `json:"value"`
	AnswerID int        `json:"answer_id,omitempty"`
}

func TextValue(s string) AnswerValue {
	return AnswerValue{Type: AnswerText, Value: s}
}

func ImageValue(base64 string, answerID int) AnswerValue {
	return AnswerValue{Type: AnswerImage, Value: base64, AnswerID: answerID}
}

func NoneValue() AnswerValue {
	return AnswerValue{Type: AnswerNone}
}

// EmptyValue is the placeholder for a question left unanswered in a
// submission. It renders as an empty cell everywhere.
func EmptyValue() AnswerValue {
	return TextValue("")
}

type ResponseRow struct {
	SubmissionID int           `json:"submission_id"`
	Answers      []AnswerValue `json:"answers"`
}

// ResponseMatrix is the aggregation result: one header per question in
// position order, one row per submission in descending submission time,
// always rectangular.
type ResponseMatrix struct {
	Headers []string      `json:"headers"`
	Rows    []ResponseRow `json:"rows"`
}

type TimeWindow string

const (
	WindowToday    TimeWindow = "today"
	WindowPastWeek TimeWindow = "past_week"
	WindowPastYear TimeWindow = "past_year"
	WindowAllTime  TimeWindow = "all_time"
)

// Cutoff returns the earliest submission time the window admits, and whether
// a cutoff applies at all (all_time has none).
func (w TimeWindow) Cutoff(now time.Time) (time.Time, bool) {
	switch w {
	case WindowToday:
		year, month, day := now.Date()
		return time.Date(year, month, day, 0, 0, 0, 0, now.Location()), true
	case WindowPastWeek:
		return now.AddDate(0, 0, -7), true
	case WindowPastYear:
		return now.AddDate(0, 0, -365), true
	}
	return time.Time{}, false
}
