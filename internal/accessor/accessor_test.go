package accessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFind(t *testing.T) {
	sigs := []Sig{
		{Name: "Name", Results: []string{"string"}},
		{Name: "SetName", Params: []string{"string"}},
		{Name: "Size", Results: []string{"int"}},
		{Name: "SetSize", Params: []string{"int64"}},
		{Name: "Close", Results: []string{"error"}},
		{Name: "Run", Params: []string{"int"}, Results: []string{"int"}},
	}

	pairs := Find(sigs, false)
	assert.Equal(t, []Pair{{Name: "Name", Getter: 0, Setter: 1}}, pairs)

	pairs = Find(sigs, true)
	assert.Equal(t, []Pair{
		{Name: "Name", Getter: 0, Setter: 1},
		{Name: "Size", Getter: 2, Setter: -1},
		{Name: "Close", Getter: 4, Setter: -1},
	}, pairs)

	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true, 4: true}, Members(pairs))
}
