package engine

import "time"

func newTimer() *time.Timer {
	return time.NewTimer(receiveTimeout)
}

func resetTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(receiveTimeout)
}
