package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack_Push(t *testing.T) {
	assert := assert.New(t)

	s := &Stack[int]{}
	assert.True(s.Empty())
	assert.False(s.Full())

	s.Push(0x1234)
	assert.False(s.Empty())
	assert.Equal(1, s.Len())
	assert.Equal(0x1234, s.Data[0])
}

func TestStack_Pop(t *testing.T) {
	assert := assert.New(t)

	s := &Stack[string]{}
	s.Push("a")
	s.Push("b")

	val, ok := s.Pop()
	assert.True(ok)
	assert.Equal("b", val)
	assert.Equal(1, s.Len())

	val, ok = s.Pop()
	assert.True(ok)
	assert.Equal("a", val)
	assert.True(s.Empty())

	val, ok = s.Pop()
	assert.False(ok)
	assert.Equal("", val)
}

func TestStack_Peek(t *testing.T) {
	assert := assert.New(t)

	s := &Stack[int]{}
	_, ok := s.Peek()
	assert.False(ok)

	s.Push(1)
	s.Push(2)

	val, ok := s.Peek()
	assert.True(ok)
	assert.Equal(2, val)
	assert.Equal(2, s.Len())
}

func TestStack_Full(t *testing.T) {
	assert := assert.New(t)

	s := &Stack[int]{Limit: 4}
	for i := 0; i < 4; i++ {
		assert.False(s.Full())
		s.Push(i)
	}
	assert.True(s.Full())

	unbounded := &Stack[int]{}
	for i := 0; i < 100; i++ {
		unbounded.Push(i)
	}
	assert.False(unbounded.Full())
}

func TestStack_Clone(t *testing.T) {
	assert := assert.New(t)

	s := &Stack[int]{Limit: 8}
	s.Push(1)
	s.Push(2)

	c := s.Clone()
	c.Push(3)
	c.Data[0] = 10

	assert.Equal([]int{1, 2}, s.Data)
	assert.Equal([]int{10, 2, 3}, c.Data)
	assert.Equal(8, c.Limit)
}
