package messages

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Inbound payload schemas, keyed by the command subject pattern. The session
// id lives in the subject, so it is not part of any payload.
var payloadSchemas = map[string]string{
	TerminalCommandSubjectPattern: `{
		"type": "object",
		"required": ["cmd"],
		"properties": {
			"cmd": {"type": "string", "minLength": 1, "maxLength": 65536},
			"correlation_id": {"type": "string"}
		}
	}`,
	TerminalPtyInputSubjectPattern: `{
		"type": "object",
		"required": ["data"],
		"properties": {
			"data": {"type": "string", "minLength": 1},
			"job_id": {"type": "string"}
		}
	}`,
	TerminalPtyCancelSubjectPattern: `{
		"type": "object",
		"properties": {
			"job_id": {"type": "string"}
		}
	}`,
	TerminalCompleteSubjectPattern: `{
		"type": "object",
		"required": ["partial"],
		"properties": {
			"partial": {"type": "string", "maxLength": 4096}
		}
	}`,
}

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func compileSchemas() {
	compiled = make(map[string]*jsonschema.Schema, len(payloadSchemas))
	for pattern, src := range payloadSchemas {
		s, err := jsonschema.CompileString("mem:///"+strings.ReplaceAll(pattern, "*", "_")+".schema.json", src)
		if err != nil {
			compileErr = fmt.Errorf("compile schema for %s: %w", pattern, err)
			return
		}
		compiled[pattern] = s
	}
}

// ValidatePayload checks a raw command payload against the schema registered
// for pattern. Patterns without a schema accept any JSON.
func ValidatePayload(pattern string, data []byte) error {
	compileOnce.Do(compileSchemas)
	if compileErr != nil {
		return compileErr
	}

	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	s, ok := compiled[pattern]
	if !ok {
		return nil
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("payload for %s: %w", pattern, err)
	}
	return nil
}
