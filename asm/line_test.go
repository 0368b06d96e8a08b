package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitArgs(t *testing.T) {
	assert := assert.New(t)

	text := `op a, ',', ",", b ; c`
	args := splitArgs(text, 2)
	assert.Equal([]field{
		{Text: "a", Col: 3},
		{Text: "','", Col: 6},
		{Text: `","`, Col: 11},
		{Text: "b", Col: 16},
	}, args)

	assert.Nil(splitArgs("op   ; nothing", 2))
	assert.Nil(splitArgs("op", 2))

	args = splitArgs("op 1,,2", 2)
	assert.Equal([]field{{"1", 3}, {"", 5}, {"2", 6}}, args)
}

func TestReadString(t *testing.T) {
	assert := assert.New(t)

	value, next, ok := readString(`"a\nb" x`, 0)
	assert.True(ok)
	assert.Equal("a\nb", value)
	assert.Equal(6, next)

	value, _, ok = readString(`"say \"hi\"\0"`, 0)
	assert.True(ok)
	assert.Equal("say \"hi\"\x00", value)

	_, _, ok = readString(`"open`, 0)
	assert.False(ok)

	_, _, ok = readString(`"\q"`, 0)
	assert.False(ok)

	_, _, ok = readString(`x"a"`, 0)
	assert.False(ok)
}

func TestParseStatement(t *testing.T) {
	assert := assert.New(t)

	stmt, ok := parseStatement("    .byte 1", 0)
	assert.True(ok)
	assert.Equal(statement{Word: ".byte", Col: 4, Args: 9}, stmt)

	stmt, ok = parseStatement("loop: add r1, r2", 5)
	assert.True(ok)
	assert.Equal(statement{Word: "add", Col: 6, Args: 9}, stmt)

	stmt, ok = parseStatement("  123 x", 0)
	assert.True(ok)
	assert.Equal("123", stmt.Word)

	_, ok = parseStatement("   ; comment", 0)
	assert.False(ok)

	_, ok = parseStatement("", 0)
	assert.False(ok)
}

func TestNames(t *testing.T) {
	assert := assert.New(t)

	assert.True(validName("abc_1"))
	assert.True(validName("@loop"))
	assert.False(validName("1abc"))
	assert.False(validName(""))
	assert.False(validName("a-b"))

	assert.True(isLocal("@x"))
	assert.False(isLocal("x"))

	assert.True(isDeclaration("main:"))
	assert.True(isDeclaration("@x = 1"))
	assert.False(isDeclaration("    nop"))
	assert.False(isDeclaration(".segment \"CODE\""))
	assert.False(isDeclaration("; comment"))
	assert.False(isDeclaration(""))
}
