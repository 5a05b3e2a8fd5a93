package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitInRegistrationOrder(t *testing.T) {
	var l Listeners[int]
	var got []string
	l.Add(func(v int) { got = append(got, "a") })
	l.Add(func(v int) { got = append(got, "b") })

	l.Emit(1)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	var l Listeners[string]
	calls := 0
	unsub := l.Add(func(string) { calls++ })
	other := l.Add(func(string) {})

	unsub()
	unsub()
	l.Emit("x")

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, l.Len())
	other()
	assert.Equal(t, 0, l.Len())
}

func TestCallbackMayUnsubscribeItself(t *testing.T) {
	var l Listeners[int]
	calls := 0
	var unsub func()
	unsub = l.Add(func(int) {
		calls++
		unsub()
	})

	l.Emit(1)
	l.Emit(2)
	assert.Equal(t, 1, calls)
}

func TestGroupReleasesAll(t *testing.T) {
	var l Listeners[int]
	var g Group
	g.Add(l.Add(func(int) {}))
	g.Add(l.Add(func(int) {}))
	g.Add(nil)

	assert.Equal(t, 2, g.Len())
	g.Release()
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 0, g.Len())

	g.Release()
}
