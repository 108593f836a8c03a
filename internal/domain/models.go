package domain

import "time"

// NotAnswered is reported as the selected answer for a question without a selection.
const NotAnswered = "Not answered"

// Option represents a possible answer for a question.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// CorrectOption returns the first option flagged correct.
func (q Question) CorrectOption() (Option, bool) {
	for _, opt := range q.Options {
		if opt.IsCorrect {
			return opt, true
		}
	}
	return Option{}, false
}

// Option looks up an option by id.
func (q Question) Option(optionID string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return Option{}, false
}

// Quiz is a collection of questions.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions,omitempty"`
}

// User is the signed-in identity attributed to a completed session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// QuestionResult is the graded outcome of one question.
type QuestionResult struct {
	QuestionID     string `json:"questionId"`
	Question       string `json:"question"`
	SelectedAnswer string `json:"selectedAnswer"`
	CorrectAnswer  string `json:"correctAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
}

// CompletedSession is the immutable snapshot produced when an attempt is submitted.
type CompletedSession struct {
	QuizID         string           `json:"quizId"`
	QuizTitle      string           `json:"quizTitle"`
	Score          int              `json:"score"`
	TotalQuestions int              `json:"totalQuestions"`
	ElapsedSeconds int              `json:"timeSpent"`
	Percentage     int              `json:"percentage"`
	Results        []QuestionResult `json:"results"`
}

// SubmitResult pairs the completed session with the outcome of persisting it.
type SubmitResult struct {
	Session   CompletedSession `json:"session"`
	SessionID string           `json:"sessionId,omitempty"`
	Saved     bool             `json:"saved"`
}

// SessionRecord is the quiz_sessions row written after a submission.
type SessionRecord struct {
	ID             string    `json:"id"`
	QuizID         string    `json:"quizId"`
	QuizTitle      string    `json:"quizTitle,omitempty"`
	UserID         string    `json:"userId,omitempty"` // empty for anonymous sessions
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	ElapsedSeconds int       `json:"timeSpent"`
	CompletedAt    time.Time `json:"completedAt"`
}

// Response is a user_responses row: one selected option per question.
type Response struct {
	SessionID        string `json:"sessionId"`
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId"`
	IsCorrect        bool   `json:"isCorrect"`
}

// QuizSummary is a catalog entry. EstimatedMinutes, Difficulty, Completions
// and AverageScore are filled by the catalog, not by the record store.
type QuizSummary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	QuestionCount    int       `json:"questionCount"`
	CreatedAt        time.Time `json:"createdAt"`
	Difficulty       string    `json:"difficulty"`
	EstimatedMinutes float64   `json:"estimatedTime"`
	Completions      int       `json:"completions"`
	AverageScore     int       `json:"averageScore"`
}

// QuizStats aggregates the recorded sessions of one quiz. MeanPercentage is
// the unrounded mean of score/total*100 over sessions with questions.
type QuizStats struct {
	QuizID         string
	Completions    int
	MeanPercentage float64
}

// Dashboard aggregates the catalog and a user's session history.
type Dashboard struct {
	TotalQuizzes   int             `json:"totalQuizzes"`
	TotalQuestions int             `json:"totalQuestions"`
	TotalSessions  int             `json:"totalSessions"`
	AverageScore   int             `json:"averageScore"`
	RecentSessions []SessionRecord `json:"recentSessions"`
}

// PerformanceMessage grades a percentage for display.
func PerformanceMessage(percentage int) string {
	switch {
	case percentage >= 90:
		return "Excellent work!"
	case percentage >= 80:
		return "Great job!"
	case percentage >= 70:
		return "Good effort!"
	case percentage >= 60:
		return "Keep practicing!"
	default:
		return "Try again!"
	}
}
