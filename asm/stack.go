package asm

// Stack is a LIFO with an optional depth limit.
type Stack[T any] struct {
	Data  []T
	Limit int // Maximum depth, or zero for no limit.
}

func (s *Stack[T]) Push(value T) {
	s.Data = append(s.Data, value)
}

func (s *Stack[T]) Pop() (value T, ok bool) {
	value, ok = s.Peek()
	if ok {
		s.Data = s.Data[:len(s.Data)-1]
	}
	return
}

func (s *Stack[T]) Empty() bool {
	return len(s.Data) == 0
}

func (s *Stack[T]) Full() bool {
	return s.Limit > 0 && len(s.Data) >= s.Limit
}

func (s *Stack[T]) Len() int {
	return len(s.Data)
}

func (s *Stack[T]) Peek() (value T, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[len(s.Data)-1], true
}

// Clone returns a copy that shares no storage with the original.
func (s *Stack[T]) Clone() Stack[T] {
	return Stack[T]{Data: append([]T(nil), s.Data...), Limit: s.Limit}
}
