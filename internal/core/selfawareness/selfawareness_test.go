package selfawareness

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSymmetricNatPredictionsNoDataYieldsNil(t *testing.T) {
	p := New(nil)
	assert.Nil(t, p.GetSymmetricNatPredictions())
}

func TestGetSymmetricNatPredictionsExtrapolatesDelta(t *testing.T) {
	p := New([]string{"stun.example.com:3478"})
	p.mu.Lock()
	p.lastIP = net.ParseIP("198.51.100.7")
	p.lastPort = 40000
	p.delta = 3
	p.haveData = true
	p.mu.Unlock()

	preds := p.GetSymmetricNatPredictions()
	assert.Len(t, preds, MaxPredictions)
	assert.Equal(t, uint16(40003), preds[0].Port)
	assert.Equal(t, uint16(40006), preds[1].Port)
}

func TestGetSymmetricNatPredictionsZeroDeltaYieldsNil(t *testing.T) {
	p := New(nil)
	p.mu.Lock()
	p.lastIP = net.ParseIP("198.51.100.7")
	p.lastPort = 40000
	p.delta = 0
	p.haveData = true
	p.mu.Unlock()

	assert.Nil(t, p.GetSymmetricNatPredictions())
}
