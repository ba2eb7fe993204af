package endpoint

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamily(t *testing.T) {
	v4 := New(net.ParseIP("203.0.113.5"), 9000)
	assert.Equal(t, FamilyV4, v4.Family())

	v6 := New(net.ParseIP("2001:db8::1"), 9000)
	assert.Equal(t, FamilyV6, v6.Family())
}

func TestRawIP(t *testing.T) {
	v4 := New(net.ParseIP("203.0.113.5"), 9000)
	raw, err := v4.RawIP()
	require.NoError(t, err)
	assert.Len(t, raw, 4)

	v6 := New(net.ParseIP("2001:db8::1"), 9000)
	raw6, err := v6.RawIP()
	require.NoError(t, err)
	assert.Len(t, raw6, 16)
}

func TestEqual(t *testing.T) {
	a := New(net.ParseIP("203.0.113.5"), 9000)
	b := New(net.ParseIP("203.0.113.5"), 9000)
	c := New(net.ParseIP("203.0.113.5"), 9001)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestClassifyScope(t *testing.T) {
	cases := []struct {
		ip   string
		want Scope
	}{
		{"127.0.0.1", ScopeLoopback},
		{"169.254.1.1", ScopeLinkLocal},
		{"10.0.0.5", ScopePrivate},
		{"192.168.1.1", ScopePrivate},
		{"203.0.113.5", ScopeGlobal},
		{"fe80::1", ScopeLinkLocal},
		{"fd00::1", ScopePrivate},
		{"2001:db8::1", ScopeGlobal},
	}
	for _, c := range cases {
		e := New(net.ParseIP(c.ip), 1)
		assert.Equal(t, c.want, e.ClassifyScope(), "ip=%s", c.ip)
	}
}

func TestUnsupportedFamily(t *testing.T) {
	e := Endpoint{IP: []byte{1, 2, 3}, Port: 1}
	_, err := e.RawIP()
	assert.ErrorIs(t, err, ErrUnsupportedFamily)
}
