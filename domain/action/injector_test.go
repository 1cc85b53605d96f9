package action

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	events  []string
	downErr error
	upErr   error
}

func (r *recordingSender) KeyDown(key string) error {
	r.events = append(r.events, "down:"+key)
	return r.downErr
}

func (r *recordingSender) KeyUp(key string) error {
	r.events = append(r.events, "up:"+key)
	return r.upErr
}

func newTestInjector(s KeySender) (*Injector, *[]time.Duration) {
	inj := NewInjector(s, 0, nil)
	var slept []time.Duration
	inj.sleep = func(d time.Duration) { slept = append(slept, d) }
	return inj, &slept
}

func TestPressKey_DownDelayUp(t *testing.T) {
	s := &recordingSender{}
	inj, slept := newTestInjector(s)

	require.NoError(t, inj.PressKey("space"))
	assert.Equal(t, []string{"down:space", "up:space"}, s.events)
	assert.Equal(t, []time.Duration{DefaultPressDelay}, *slept)
}

func TestPressKey_DownFailureSkipsUp(t *testing.T) {
	s := &recordingSender{downErr: errors.New("blocked")}
	inj, slept := newTestInjector(s)

	err := inj.PressKey("space")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputInjection)
	var ie *InjectionError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "down", ie.Phase)
	assert.Equal(t, []string{"down:space"}, s.events)
	assert.Empty(t, *slept)
}

func TestPressKey_UpFailureReported(t *testing.T) {
	cause := errors.New("rejected")
	s := &recordingSender{upErr: cause}
	inj, _ := newTestInjector(s)

	err := inj.PressKey("enter")
	assert.ErrorIs(t, err, ErrInputInjection)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []string{"down:enter", "up:enter"}, s.events)
}

func TestNewInjector_CustomDelay(t *testing.T) {
	inj := NewInjector(&recordingSender{}, 25*time.Millisecond, nil)
	assert.Equal(t, 25*time.Millisecond, inj.delay)
}
