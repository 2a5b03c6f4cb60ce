package metadata

import "fmt"

// Token is a stable reference to one row in one table: the table number in
// the top byte and a 1-based 24-bit RID in the low bytes. RID 0 is the null
// reference and never addresses a row.
type Token uint32

func NewToken(table TableId, rid uint32) Token {
	return Token(uint32(table)<<24 | rid&0x00FF_FFFF)
}

func (t Token) Table() TableId { return TableId(t >> 24) }

func (t Token) Rid() uint32 { return uint32(t) & 0x00FF_FFFF }

func (t Token) IsNull() bool { return t.Rid() == 0 }

func (t Token) String() string {
	return fmt.Sprintf("%s[%d]", t.Table(), t.Rid())
}
