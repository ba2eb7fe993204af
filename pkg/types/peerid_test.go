package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPeerID(seed byte) PeerID {
	var id PeerID
	for i := range id {
		id[i] = byte(i) + seed
	}
	return id
}

func TestPeerIDRoundTrip(t *testing.T) {
	id := testPeerID(7)
	s := id.String()
	assert.NotEmpty(t, s)

	decoded, err := PeerIDFromString(s)
	require.NoError(t, err)
	assert.Equal(t, id, decoded)
}

func TestPeerIDEmpty(t *testing.T) {
	assert.True(t, EmptyPeerID.IsEmpty())
	assert.Equal(t, "", EmptyPeerID.String())
}

func TestPeerIDFromBytesInvalidLength(t *testing.T) {
	_, err := PeerIDFromBytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidPeerID)
}

func TestPeerIDShortString(t *testing.T) {
	id := testPeerID(1)
	assert.Len(t, id.ShortString(), 8)
}
