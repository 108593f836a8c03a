package app

import (
	"sync"

	"quiztaker/internal/domain"
)

// Attempt is one user's pass through a quiz. It is mutated by the caller
// (answer selection, navigation) and by its own timer goroutine; mu guards
// everything below it.
type Attempt struct {
	id   string
	quiz domain.Quiz

	mu      sync.Mutex
	answers map[string]string // question id -> option id; keys are the answered set
	cursor  int
	elapsed int
	live    bool
	onTick  func(elapsed int)

	ticker   Ticker
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// newAttempt starts the timer immediately; quiz must have at least one question.
func newAttempt(id string, quiz domain.Quiz, ticker Ticker) *Attempt {
	a := &Attempt{
		id:      id,
		quiz:    quiz,
		answers: make(map[string]string, len(quiz.Questions)),
		live:    true,
		ticker:  ticker,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Attempt) run() {
	defer close(a.done)
	for {
		select {
		case <-a.stop:
			return
		case <-a.ticker.C():
			a.tick()
		}
	}
}

func (a *Attempt) tick() {
	a.mu.Lock()
	if !a.live {
		a.mu.Unlock()
		return
	}
	a.elapsed++
	elapsed, observer := a.elapsed, a.onTick
	a.mu.Unlock()

	if observer != nil {
		observer(elapsed)
	}
}

// close stops the timer once and waits for the tick goroutine to exit.
func (a *Attempt) close() {
	a.stopOnce.Do(func() {
		a.mu.Lock()
		a.live = false
		a.mu.Unlock()

		a.ticker.Stop()
		close(a.stop)
		<-a.done
	})
}

func (a *Attempt) ID() string { return a.id }

// Quiz returns the quiz as presented in this attempt (options shuffled).
func (a *Attempt) Quiz() domain.Quiz { return a.quiz }

// OnTick registers an observer called after every timer tick, outside the lock.
// The observer must not block.
func (a *Attempt) OnTick(fn func(elapsed int)) {
	a.mu.Lock()
	a.onTick = fn
	a.mu.Unlock()
}

// SelectAnswer records optionID as the answer to questionID, replacing any
// earlier selection.
func (a *Attempt) SelectAnswer(questionID, optionID string) error {
	q, ok := a.question(questionID)
	if !ok {
		return domain.ErrQuestionNotFound
	}
	if _, ok := q.Option(optionID); !ok {
		return domain.ErrOptionNotFound
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.live {
		return domain.ErrAttemptClosed
	}
	a.answers[questionID] = optionID
	return nil
}

func (a *Attempt) IsAnswered(questionID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.answers[questionID]
	return ok
}

// Selected returns the option id chosen for questionID.
func (a *Attempt) Selected(questionID string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	optionID, ok := a.answers[questionID]
	return optionID, ok
}

func (a *Attempt) AnsweredCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.answers)
}

// AllAnswered reports whether every question has a selection.
func (a *Attempt) AllAnswered() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allAnsweredLocked()
}

func (a *Attempt) allAnsweredLocked() bool {
	return len(a.answers) == len(a.quiz.Questions)
}

// Next moves the cursor forward; it stays put on the last question.
func (a *Attempt) Next() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cursor < len(a.quiz.Questions)-1 {
		a.cursor++
	}
	return a.cursor
}

// Previous moves the cursor back; it stays put on the first question.
func (a *Attempt) Previous() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cursor > 0 {
		a.cursor--
	}
	return a.cursor
}

func (a *Attempt) JumpTo(index int) error {
	if index < 0 || index >= len(a.quiz.Questions) {
		return domain.ErrIndexOutOfRange
	}
	a.mu.Lock()
	a.cursor = index
	a.mu.Unlock()
	return nil
}

func (a *Attempt) Cursor() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cursor
}

// Current returns the question under the cursor.
func (a *Attempt) Current() domain.Question {
	return a.quiz.Questions[a.Cursor()]
}

// Progress is (cursor+1)/n.
func (a *Attempt) Progress() float64 {
	return float64(a.Cursor()+1) / float64(len(a.quiz.Questions))
}

// Elapsed returns whole seconds counted by the timer.
func (a *Attempt) Elapsed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.elapsed
}

// Live reports whether the attempt still accepts answers.
func (a *Attempt) Live() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live
}

// State is the client-facing view of an attempt. Option correctness is never included.
type State struct {
	AttemptID   string        `json:"attemptId"`
	QuizID      string        `json:"quizId"`
	QuizTitle   string        `json:"quizTitle"`
	Description string        `json:"description,omitempty"`
	Index       int           `json:"index"`
	Total       int           `json:"total"`
	Answered    int           `json:"answered"`
	Progress    float64       `json:"progress"`
	Elapsed     int           `json:"elapsed"`
	CanSubmit   bool          `json:"canSubmit"`
	Question    QuestionState `json:"question"`
}

type QuestionState struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Options  []OptionState `json:"options"`
	Selected string        `json:"selected,omitempty"`
}

type OptionState struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// State captures a consistent view of the attempt at the cursor.
func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	q := a.quiz.Questions[a.cursor]
	options := make([]OptionState, 0, len(q.Options))
	for _, opt := range q.Options {
		options = append(options, OptionState{ID: opt.ID, Text: opt.Text})
	}
	total := len(a.quiz.Questions)
	return State{
		AttemptID:   a.id,
		QuizID:      a.quiz.ID,
		QuizTitle:   a.quiz.Title,
		Description: a.quiz.Description,
		Index:       a.cursor,
		Total:       total,
		Answered:    len(a.answers),
		Progress:    float64(a.cursor+1) / float64(total),
		Elapsed:     a.elapsed,
		CanSubmit:   a.live && a.allAnsweredLocked(),
		Question: QuestionState{
			ID:       q.ID,
			Text:     q.Text,
			Options:  options,
			Selected: a.answers[q.ID],
		},
	}
}

// complete closes a fully answered attempt and grades it. Only one caller
// can complete an attempt.
func (a *Attempt) complete() (domain.CompletedSession, map[string]string, error) {
	a.mu.Lock()
	if !a.live {
		a.mu.Unlock()
		return domain.CompletedSession{}, nil, domain.ErrAttemptClosed
	}
	if !a.allAnsweredLocked() {
		a.mu.Unlock()
		return domain.CompletedSession{}, nil, domain.ErrIncompleteAttempt
	}
	a.live = false
	answers := make(map[string]string, len(a.answers))
	for k, v := range a.answers {
		answers[k] = v
	}
	elapsed := a.elapsed
	a.mu.Unlock()

	a.close()

	score, results := Grade(a.quiz.Questions, answers)
	total := len(a.quiz.Questions)
	return domain.CompletedSession{
		QuizID:         a.quiz.ID,
		QuizTitle:      a.quiz.Title,
		Score:          score,
		TotalQuestions: total,
		ElapsedSeconds: elapsed,
		Percentage:     Percentage(score, total),
		Results:        results,
	}, answers, nil
}

func (a *Attempt) question(questionID string) (domain.Question, bool) {
	for _, q := range a.quiz.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return domain.Question{}, false
}
