package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/walteh/guils/pkg/diff"
	"github.com/walteh/guils/pkg/semtok"
)

func TestEqualValuesHaveNoDiff(t *testing.T) {
	tok := semtok.NewToken(semtok.KindBool, 0, 4)
	assert.Empty(t, diff.Values(tok, tok))
	assert.Empty(t, diff.Lines("a\nb", "a\nb"))
}

func TestLinesMarksChanges(t *testing.T) {
	got := diff.Lines("main.gui:1:1\t4\tkeyword\n", "main.gui:1:1\t4\tnumber\n")

	assert.Contains(t, got, "+main.gui:1:1\t4\tkeyword")
	assert.Contains(t, got, "-main.gui:1:1\t4\tnumber")
}

func TestValuesShowsField(t *testing.T) {
	got := diff.Values(
		semtok.Encoded{DeltaLine: 1, Length: 2},
		semtok.Encoded{DeltaLine: 1, Length: 3},
	)

	assert.Contains(t, got, "Length")
}
