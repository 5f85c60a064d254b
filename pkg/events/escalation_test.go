package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEscalationRequested_Payload(t *testing.T) {
	at := time.Date(2024, 5, 15, 9, 30, 0, 0, time.UTC)
	e := EscalationRequested{
		EscalationId: "esc-1",
		Method:       "desk",
		Severity:     "P2",
		SourceDocIds: []string{"LIC-MS-365"},
		OccurredAt:   at,
	}

	p := e.Payload()

	assert.Equal(t, "helpdesk.escalation", e.EventType())
	assert.Equal(t, at, e.Timestamp())
	assert.Equal(t, "desk", p["method"])
	assert.Equal(t, "P2", p["severity"])
	assert.Equal(t, "2024-05-15T09:30:00Z", p["occurred_at"])
	assert.Equal(t, []string{"LIC-MS-365"}, p["source_doc_ids"])
}
