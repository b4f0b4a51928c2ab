package reconcile

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/tools"
	errx "github.com/Chative-core-poc-v1/shopping-assistant/internal/core/error"
	logx "github.com/Chative-core-poc-v1/shopping-assistant/pkg/logger"
)

// basic safety limits to avoid pathological payloads
const (
	maxPayloadLen = 256 * 1024 // 256KB
	maxErrSnippet = 200        // limit error snippet size
)

// decodePayload interprets a tool-result message body as a status envelope.
func decodePayload(content string) (env tools.Envelope, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "reconcile").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("payload decode panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			env = tools.Envelope{}
		}
	}()

	content = strings.TrimSpace(content)
	if content == "" {
		return tools.Envelope{}, fmt.Errorf("empty payload")
	}
	if len(content) > maxPayloadLen {
		return tools.Envelope{}, fmt.Errorf("payload too large (%d bytes)", len(content))
	}
	if !utf8.ValidString(content) {
		return tools.Envelope{}, fmt.Errorf("payload invalid utf8")
	}
	if !strings.HasPrefix(content, "{") {
		return tools.Envelope{}, fmt.Errorf("payload not json object: %q", snippet(content))
	}
	return tools.DecodeEnvelope(content)
}

func snippet(s string) string {
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet] + "..."
}
