package eventbus

import (
	"encoding/json"

	"github.com/stretchr/testify/suite"
)

// mustField returns the raw JSON value of key in obj.
func mustField(s suite.TestingSuite, obj json.RawMessage, key string) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		s.T().Fatalf("unmarshal payload: %v", err)
	}
	return fields[key]
}
