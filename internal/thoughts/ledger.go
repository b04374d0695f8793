// Package thoughts implements the sequential thinking ledger: a
// numbered chain of reasoning steps with revision and branching
// support. The model drives it through the sequential_thinking tool
// to work through multi-step planning before answering.
package thoughts

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Thought is one recorded reasoning step.
type Thought struct {
	Thought           string `json:"thought"`
	ThoughtNumber     int    `json:"thoughtNumber"`
	TotalThoughts     int    `json:"totalThoughts"`
	NextThoughtNeeded bool   `json:"nextThoughtNeeded"`
	IsRevision        bool   `json:"isRevision,omitempty"`
	RevisesThought    int    `json:"revisesThought,omitempty"`
	BranchFromThought int    `json:"branchFromThought,omitempty"`
	BranchID          string `json:"branchId,omitempty"`
	NeedsMoreThoughts bool   `json:"needsMoreThoughts,omitempty"`
	Timestamp         string `json:"timestamp"`
}

// Result reports the ledger state after recording a thought.
type Result struct {
	Success              bool     `json:"success"`
	ThoughtNumber        int      `json:"thoughtNumber"`
	TotalThoughts        int      `json:"totalThoughts"`
	NextThoughtNeeded    bool     `json:"nextThoughtNeeded"`
	Branches             []string `json:"branches"`
	ThoughtHistoryLength int      `json:"thoughtHistoryLength"`
	Message              string   `json:"message"`
}

// Ledger holds the main thought history and named branches.
// All methods are safe for concurrent use; tool calls may fan out.
type Ledger struct {
	mu       sync.Mutex
	history  []Thought
	branches map[string][]Thought
	now      func() time.Time
}

// NewLedger creates an empty thought ledger.
func NewLedger() *Ledger {
	return &Ledger{
		branches: make(map[string][]Thought),
		now:      time.Now,
	}
}

// Record appends, revises, or branches a thought.
//
// A thought with a BranchID goes to that branch; the first thought on
// a new branch snapshots the main history up to and including
// BranchFromThought, so the branch starts from a shared prefix.
// Revisions replace the thought whose number matches RevisesThought in
// place; a revision target that does not exist is a no-op rather than
// an error, since the model sometimes misremembers numbering.
func (l *Ledger) Record(t Thought) *Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	t.Timestamp = l.now().Format("2006-01-02T15:04:05")

	if t.BranchID != "" {
		l.recordOnBranch(t)
	} else if t.IsRevision && t.RevisesThought > 0 {
		reviseInPlace(l.history, t.RevisesThought, t)
	} else {
		l.history = append(l.history, t)
	}

	res := &Result{
		Success:              true,
		ThoughtNumber:        t.ThoughtNumber,
		TotalThoughts:        t.TotalThoughts,
		NextThoughtNeeded:    t.NextThoughtNeeded,
		Branches:             l.branchNames(),
		ThoughtHistoryLength: len(l.history),
	}
	res.Message = message(t)
	return res
}

func (l *Ledger) recordOnBranch(t Thought) {
	if _, exists := l.branches[t.BranchID]; !exists && t.BranchFromThought > 0 {
		// Snapshot the main ledger up to the fork point.
		forkIdx := indexOfThought(l.history, t.BranchFromThought)
		if forkIdx >= 0 {
			branch := make([]Thought, forkIdx+1)
			copy(branch, l.history[:forkIdx+1])
			l.branches[t.BranchID] = branch
		} else {
			l.branches[t.BranchID] = []Thought{}
		}
	}

	branch, exists := l.branches[t.BranchID]
	if !exists {
		return
	}

	if t.IsRevision && t.RevisesThought > 0 {
		reviseInPlace(branch, t.RevisesThought, t)
	} else {
		l.branches[t.BranchID] = append(branch, t)
	}
}

func indexOfThought(ts []Thought, number int) int {
	for i, t := range ts {
		if t.ThoughtNumber == number {
			return i
		}
	}
	return -1
}

func reviseInPlace(ts []Thought, number int, replacement Thought) {
	if i := indexOfThought(ts, number); i >= 0 {
		ts[i] = replacement
	}
}

func message(t Thought) string {
	if t.IsRevision {
		return fmt.Sprintf("Revised thought %d.", t.RevisesThought)
	}

	var branchText string
	if t.BranchID != "" {
		branchText = fmt.Sprintf(" (Branch: %s)", t.BranchID)
	}

	switch {
	case !t.NextThoughtNeeded:
		return fmt.Sprintf("Recorded final thought %d/%d%s. The thinking process is complete.",
			t.ThoughtNumber, t.TotalThoughts, branchText)
	case t.NeedsMoreThoughts:
		return fmt.Sprintf("Recorded thought %d/%d%s. More thoughts will be needed.",
			t.ThoughtNumber, t.TotalThoughts, branchText)
	default:
		return fmt.Sprintf("Recorded thought %d/%d%s. Continue with the next thought.",
			t.ThoughtNumber, t.TotalThoughts, branchText)
	}
}

// Think records a single standalone thought, the legacy one-shot form.
func (l *Ledger) Think(thought string) *Result {
	return l.Record(Thought{
		Thought:           thought,
		ThoughtNumber:     1,
		TotalThoughts:     1,
		NextThoughtNeeded: false,
	})
}

// History returns a copy of the main thought history.
func (l *Ledger) History() []Thought {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Thought, len(l.history))
	copy(out, l.history)
	return out
}

// Branch returns a copy of a named branch and whether it exists.
func (l *Ledger) Branch(id string) ([]Thought, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	branch, ok := l.branches[id]
	if !ok {
		return nil, false
	}
	out := make([]Thought, len(branch))
	copy(out, branch)
	return out, true
}

func (l *Ledger) branchNames() []string {
	names := make([]string, 0, len(l.branches))
	for name := range l.branches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
