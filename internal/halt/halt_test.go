package halt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFatal(t *testing.T) {
	var seen []Info
	SetHandler(func(info Info) { seen = append(seen, info) })
	defer SetHandler(nil)

	for i := 0; i < 2; i++ {
		func() {
			defer func() {
				r := recover()
				info, ok := r.(Info)
				assert.True(t, ok)
				assert.Equal(t, "queue", info.Component)
				assert.Contains(t, info.Error(), "node 3 linked twice")
			}()
			Fatal("queue", "node %d linked twice", 3)
		}()
	}
	assert.True(t, Halted())
	assert.Len(t, seen, 1)
	assert.NotEmpty(t, seen[0].Stack)
}
