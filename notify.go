package main

// Notifier shows a message the user has to acknowledge.
type Notifier interface {
	Alert(msg string)
}

// alertQueue is the TUI notifier. The first queued message is shown as a
// modal and holds all input until dismissed.
type alertQueue struct {
	pending []string
}

func (q *alertQueue) Alert(msg string) {
	q.pending = append(q.pending, msg)
}

// Current returns the alert being shown.
func (q *alertQueue) Current() (string, bool) {
	if len(q.pending) == 0 {
		return "", false
	}
	return q.pending[0], true
}

// Dismiss drops the alert being shown.
func (q *alertQueue) Dismiss() {
	if len(q.pending) > 0 {
		q.pending = q.pending[1:]
	}
}

func (q *alertQueue) Active() bool { return len(q.pending) > 0 }
