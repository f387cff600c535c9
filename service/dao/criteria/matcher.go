// Package criteria evaluates dao.Parameter filters.
package criteria

import (
	"github.com/viant/xkernel/service/dao"
)

// Filter names understood by the kernel tables.
const (
	State  = "State"
	Name   = "Name"
	Parent = "Parent"
)

// FilterByState reports whether state satisfies every State parameter.
func FilterByState(state string, parameters []*dao.Parameter) bool {
	return filterBy(State, state, parameters)
}

// FilterByName reports whether name satisfies every Name parameter.
func FilterByName(name string, parameters []*dao.Parameter) bool {
	return filterBy(Name, name, parameters)
}

// FilterByParent reports whether parent satisfies every Parent parameter.
func FilterByParent(parent string, parameters []*dao.Parameter) bool {
	return filterBy(Parent, parent, parameters)
}

func filterBy(name, value string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != name {
			continue
		}
		if !matches(value, parameter.Value) {
			return false
		}
	}
	return true
}

func matches(value string, expected interface{}) bool {
	switch actual := expected.(type) {
	case string:
		return value == actual
	case []string:
		for _, s := range actual {
			if value == s {
				return true
			}
		}
		return false
	}
	return true
}
