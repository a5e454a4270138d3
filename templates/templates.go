// Copyright (c) 2025, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package templates evaluates expressions and renders templates against the state of a service
package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/CloudyKit/jet/v6"
	"github.com/expr-lang/expr"
	"github.com/tidwall/gjson"

	"github.com/choria-io/svcctl/model"
)

var placeholderRe = regexp.MustCompile(`{{\s*(.*?)\s*}}`)

// Env is the environment expressions and templates are evaluated in
type Env struct {
	Name        string              `json:"name" yaml:"name"`
	Installed   bool                `json:"installed" yaml:"installed"`
	Active      bool                `json:"active" yaml:"active"`
	ActiveState string              `json:"active_state" yaml:"active_state"`
	Enabled     bool                `json:"enabled" yaml:"enabled"`
	PID         int                 `json:"pid" yaml:"pid"`
	Condition   string              `json:"condition" yaml:"condition"`
	Process     *model.ProcessState `json:"process,omitempty" yaml:"process,omitempty"`
	Environ     map[string]string   `json:"environ" yaml:"environ"`

	envJSON json.RawMessage
	mu      sync.Mutex
}

// NewEnv creates an environment for state, process is optional
func NewEnv(state *model.ServiceState, process *model.ProcessState) *Env {
	env := &Env{
		Process: process,
		Environ: make(map[string]string),
	}

	if state != nil {
		env.Name = state.Name
		env.Installed = state.Installed
		env.Active = state.Active
		env.ActiveState = state.ActiveState
		env.Enabled = state.Enabled
		env.PID = state.PID
		env.Condition = state.Condition.String()
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			env.Environ[k] = v
		}
	}

	return env
}

func (e *Env) lookup(params ...any) (any, error) {
	if len(params) == 0 || len(params) > 2 {
		return nil, fmt.Errorf("lookup requires 1 or 2 arguments")
	}

	key, ok := params[0].(string)
	if !ok {
		return nil, fmt.Errorf("lookup requires a string argument")
	}

	var defaultValue any = ""
	if len(params) == 2 {
		defaultValue = params[1]
	}

	j, err := e.JSON()
	if err != nil {
		return nil, err
	}

	res := gjson.GetBytes(j, key)
	if !res.Exists() {
		return defaultValue, nil
	}

	if res.Type == gjson.Number {
		if strings.Contains(res.Raw, ".") {
			return res.Float(), nil
		}

		return res.Int(), nil
	}

	return res.Value(), nil
}

// JSON is the JSON form of the environment that lookup and gjson queries operate on
func (e *Env) JSON() (json.RawMessage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.envJSON == nil {
		j, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		e.envJSON = j
	}

	return e.envJSON, nil
}

// Query performs a gjson query against the environment
func (e *Env) Query(query string) (any, error) {
	j, err := e.JSON()
	if err != nil {
		return nil, err
	}

	res := gjson.GetBytes(j, query)
	if !res.Exists() {
		return nil, fmt.Errorf("query %q matched nothing", query)
	}

	return res.Value(), nil
}

func (e *Env) jet(params ...any) (any, error) {
	if len(params) != 1 && len(params) != 3 {
		return nil, fmt.Errorf("jet requires 1 or 3 arguments")
	}

	var args []string
	for _, p := range params {
		s, ok := p.(string)
		if !ok {
			return nil, fmt.Errorf("jet requires string arguments")
		}
		args = append(args, s)
	}

	openDelim, closeDelim := "[[", "]]"
	if len(args) == 3 {
		openDelim, closeDelim = args[1], args[2]
	}

	return RenderJet("inline", args[0], openDelim, closeDelim, e)
}

// RenderJet renders a jet template body using the given delimiters
func RenderJet(name string, body string, openDelim string, closeDelim string, env *Env) (string, error) {
	set := jet.NewSet(jet.NewInMemLoader(), jet.WithDelims(openDelim, closeDelim))
	tpl, err := set.Parse(name, body)
	if err != nil {
		return "", err
	}

	variables := jet.VarMap{
		"name":    reflect.ValueOf(env.Name),
		"active":  reflect.ValueOf(env.Active),
		"enabled": reflect.ValueOf(env.Enabled),
		"pid":     reflect.ValueOf(env.PID),
		"process": reflect.ValueOf(env.Process),
		"environ": reflect.ValueOf(env.Environ),
	}

	buff := bytes.NewBuffer([]byte{})
	err = tpl.Execute(buff, variables, env)
	if err != nil {
		return "", err
	}

	return buff.String(), nil
}

// Evaluate compiles and runs an expression in env
func Evaluate(expression string, env *Env) (any, error) {
	program, err := expr.Compile(expression, expr.Env(env), expr.Function("lookup", env.lookup), expr.Function("jet", env.jet))
	if err != nil {
		return nil, fmt.Errorf("expr compile error for '%s': %w", expression, err)
	}

	return expr.Run(program, env)
}

// EvaluateBool runs an expression that must produce a boolean
func EvaluateBool(expression string, env *Env) (bool, error) {
	res, err := Evaluate(expression, env)
	if err != nil {
		return false, err
	}

	b, ok := res.(bool)
	if !ok {
		return false, fmt.Errorf("expression '%s' returned %T, expected a boolean", expression, res)
	}

	return b, nil
}

// ResolveTemplateString replaces every {{ expression }} placeholder in template with its value
func ResolveTemplateString(template string, env *Env) (string, error) {
	if template == "" {
		return "", nil
	}

	matches := placeholderRe.FindAllStringSubmatchIndex(template, -1)
	if matches == nil {
		return template, nil
	}

	var result strings.Builder
	lastIndex := 0

	for _, loc := range matches {
		fullStart, fullEnd := loc[0], loc[1]
		innerStart, innerEnd := loc[2], loc[3]

		value, err := Evaluate(template[innerStart:innerEnd], env)
		if err != nil {
			return "", err
		}

		result.WriteString(template[lastIndex:fullStart])
		if value != nil {
			result.WriteString(fmt.Sprint(value))
		}

		lastIndex = fullEnd
	}

	result.WriteString(template[lastIndex:])

	return result.String(), nil
}
