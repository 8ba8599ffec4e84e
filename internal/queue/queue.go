// Package queue renders the clinic waiting-room display. It is a
// simulation: it keeps no server state and makes no ordering promises
// between clients.
package queue

import (
	"errors"
	"time"
)

// WaitDecrement is how many minutes every estimate drops per tick.
const WaitDecrement = 2

// TickInterval is the cadence clients are expected to call Advance at.
const TickInterval = 30 * time.Second

// Entry is one synthetic person ahead in the queue.
type Entry struct {
	Number        int `json:"number"`
	Position      int `json:"position"`
	EstimatedWait int `json:"estimatedWait"` // minutes
}

type Snapshot struct {
	CurrentNumber int     `json:"currentNumber"`
	PeopleAhead   []Entry `json:"peopleAhead"`
	Position      int     `json:"position"`
	EstimatedWait int     `json:"estimatedWait"`
	Done          bool    `json:"done"`
}

type Simulation struct {
	current int
	ahead   []Entry
	wait    int
}

// New builds a queue where the caller is behind total people, the first of
// whom holds number current. Waits of the people ahead are spread evenly
// between zero and the caller's own estimate.
func New(current, total, estimatedWait int) (*Simulation, error) {
	if current < 0 || total < 0 || estimatedWait < 0 {
		return nil, errors.New("queue parameters must not be negative")
	}
	s := &Simulation{current: current, wait: estimatedWait, ahead: make([]Entry, 0, total)}
	for i := 0; i < total; i++ {
		s.ahead = append(s.ahead, Entry{
			Number:        current + i,
			Position:      i + 1,
			EstimatedWait: estimatedWait * i / total,
		})
	}
	return s, nil
}

// Advance serves the head of the queue and lowers every estimate.
func (s *Simulation) Advance() {
	if len(s.ahead) > 0 {
		s.ahead = s.ahead[1:]
		s.current++
	}
	for i := range s.ahead {
		s.ahead[i].Position = i + 1
		s.ahead[i].EstimatedWait = decrement(s.ahead[i].EstimatedWait)
	}
	s.wait = decrement(s.wait)
}

func (s *Simulation) Snapshot() Snapshot {
	return Snapshot{
		CurrentNumber: s.current,
		PeopleAhead:   append([]Entry{}, s.ahead...),
		Position:      len(s.ahead) + 1,
		EstimatedWait: s.wait,
		Done:          len(s.ahead) == 0,
	}
}

func decrement(v int) int {
	if v <= WaitDecrement {
		return 0
	}
	return v - WaitDecrement
}
