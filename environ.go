// SPDX-FileCopyrightText: 2025 2025 Lukas Heindl
//
// SPDX-License-Identifier: MIT

package main

import (
	"sort"
)

// Environ is the set of CGI variables collected for one request. Later writes
// to the same name replace earlier ones.
type Environ map[string]string

func (e Environ) Set(name, value string) {
	e[name] = value
}

func (e Environ) Get(name string) (string, bool) {
	v, ok := e[name]
	return v, ok
}

// Pairs returns the environment as sorted NAME=value strings suitable for exec.Cmd.Env
func (e Environ) Pairs() []string {
	ret := make([]string, 0, len(e))
	for k, v := range e {
		ret = append(ret, k+"="+v)
	}
	sort.Strings(ret)
	return ret
}
