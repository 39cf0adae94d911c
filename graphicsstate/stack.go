package graphicsstate

// Stack is the q/Q save stack. Its base state is never popped.
type Stack struct {
	states []*GraphicsState
}

// NewStack creates a stack whose base is base, or the default state when
// base is nil.
func NewStack(base *GraphicsState) *Stack {
	if base == nil {
		base = NewGraphicsState()
	}
	return &Stack{states: []*GraphicsState{base}}
}

// Current returns the state operators modify
func (s *Stack) Current() *GraphicsState {
	return s.states[len(s.states)-1]
}

// Push saves a copy of the current state (q operator)
func (s *Stack) Push() {
	s.states = append(s.states, s.Current().Clone())
}

// Pop restores the previously saved state (Q operator). At the base it
// does nothing and reports false.
func (s *Stack) Pop() bool {
	if len(s.states) == 1 {
		return false
	}
	s.states[len(s.states)-1] = nil
	s.states = s.states[:len(s.states)-1]
	return true
}

// Depth returns the number of saved states above the base
func (s *Stack) Depth() int {
	return len(s.states) - 1
}
