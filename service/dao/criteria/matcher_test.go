package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/xkernel/service/dao"
)

func TestFilterByState(t *testing.T) {
	testCases := []struct {
		name       string
		state      string
		parameters []*dao.Parameter
		expect     bool
	}{
		{name: "no parameters", state: "ready", expect: true},
		{name: "single match", state: "ready", parameters: []*dao.Parameter{dao.NewParameter(State, "ready")}, expect: true},
		{name: "single mismatch", state: "zombie", parameters: []*dao.Parameter{dao.NewParameter(State, "ready")}, expect: false},
		{name: "any of", state: "blocked", parameters: []*dao.Parameter{dao.NewParameter(State, "ready", "blocked")}, expect: true},
		{name: "other filter ignored", state: "zombie", parameters: []*dao.Parameter{dao.NewParameter(Name, "init")}, expect: true},
		{
			name:  "combined with name",
			state: "ready",
			parameters: []*dao.Parameter{
				dao.NewParameter(Name, "init"),
				dao.NewParameter(State, "running", "zombie"),
			},
			expect: false,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, FilterByState(tc.state, tc.parameters))
		})
	}
}

func TestFilterByName(t *testing.T) {
	parameters := []*dao.Parameter{dao.NewParameter(Name, "disk", "net")}
	assert.True(t, FilterByName("net", parameters))
	assert.False(t, FilterByName("console", parameters))
	assert.True(t, FilterByParent("7", parameters))
}
