package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingObserver struct {
	percents []int
	messages []string
}

func (r *recordingObserver) Update(percent int, message string) {
	r.percents = append(r.percents, percent)
	r.messages = append(r.messages, message)
}

func TestMulti_FansOutInOrder(t *testing.T) {
	a := &recordingObserver{}
	b := &recordingObserver{}
	m := Multi{a, b}

	m.Update(50, "halfway")

	assert.Equal(t, []int{50}, a.percents)
	assert.Equal(t, []int{50}, b.percents)
	assert.Equal(t, []string{"halfway"}, a.messages)
}

func TestNoOp_DoesNotPanic(t *testing.T) {
	var o NoOp
	assert.NotPanics(t, func() { o.Update(10, "anything") })
}

func TestLogging_DoesNotPanic(t *testing.T) {
	l := NewLogging(nil)
	assert.NotPanics(t, func() { l.Update(99, "almost done") })
}
