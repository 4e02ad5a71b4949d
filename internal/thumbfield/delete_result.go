package thumbfield

import (
	thumbsgen "github.com/giobyte8/newsroom/internal/thumbs_gen"
)

// DeleteOutcome is the result of removing a single file. Size is
// zero for the original.
type DeleteOutcome struct {
	Size thumbsgen.Size
	Name string
	Err  error
}

type DeleteResult struct {
	Original DeleteOutcome
	Thumbs   []DeleteOutcome
}

// Failed lists every removal that did not succeed, original first.
func (r *DeleteResult) Failed() []DeleteOutcome {
	var failed []DeleteOutcome
	if r.Original.Err != nil {
		failed = append(failed, r.Original)
	}
	for _, t := range r.Thumbs {
		if t.Err != nil {
			failed = append(failed, t)
		}
	}
	return failed
}

func (r *DeleteResult) OK() bool {
	return len(r.Failed()) == 0
}
