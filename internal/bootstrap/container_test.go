package bootstrap

import (
	"testing"

	pktNats "ai-helpdesk-be/pkg/nats"

	"github.com/stretchr/testify/assert"
)

func TestDeskEventBus(t *testing.T) {
	pub := &pktNats.Publisher{}
	sub := &pktNats.Subscriber{}

	assert.Equal(t, pub, deskEventBus(pub, sub))
	assert.Nil(t, deskEventBus(pub, nil), "without the desk feed subscriber nothing would reach the hub")
	assert.Nil(t, deskEventBus(nil, sub))
	assert.Nil(t, deskEventBus(nil, nil))
}
