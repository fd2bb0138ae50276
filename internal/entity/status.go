package entity

type Outcome string

const (
	OutcomeInProgress Outcome = "in_progress"
	OutcomeWon        Outcome = "won"
	OutcomeDrawn      Outcome = "drawn"
)

// Status is the derived result of a board. Winner and Line are set only when Outcome is won.
type Status struct {
	Outcome Outcome `json:"outcome"`
	Winner  Mark    `json:"winner,omitempty"`
	Line    *Line   `json:"line,omitempty"`
}

func InProgress() Status {
	return Status{Outcome: OutcomeInProgress}
}

func Won(mark Mark, line Line) Status {
	return Status{Outcome: OutcomeWon, Winner: mark, Line: &line}
}

func Drawn() Status {
	return Status{Outcome: OutcomeDrawn}
}

func (that Status) IsTerminal() bool {
	return that.Outcome == OutcomeWon || that.Outcome == OutcomeDrawn
}

func (that Status) IsWon() bool {
	return that.Outcome == OutcomeWon
}

func (that Status) IsDrawn() bool {
	return that.Outcome == OutcomeDrawn
}

// InWinningLine reports whether cell belongs to the reported winning line.
func (that Status) InWinningLine(cell int) bool {
	return that.Line != nil && that.Line.Contains(cell)
}
