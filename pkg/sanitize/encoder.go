package sanitize

import (
	"encoding/json"
	"fmt"
)

// EncodeAsData wraps sanitized content in a labeled envelope with a
// JSON-escaped body, so the prompt template downstream can tell the model to
// treat everything inside as inert data. Never fails: marshaling a string map
// cannot error, and control characters were already stripped upstream.
func EncodeAsData(label, content string) string {
	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		payload = []byte(`{"content":""}`)
	}
	return fmt.Sprintf("[DATA:%s]%s[/DATA:%s]", label, payload, label)
}
