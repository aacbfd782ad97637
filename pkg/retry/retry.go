// Package retry runs actions until they succeed or a strategy gives up.
package retry

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retry runs action until it returns nil or one of the strategies declines
// another attempt. It returns the number of attempts made alongside the last
// error.
//
// Strategies are consulted in order, so ones that sleep belong at the end.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	for attempt := uint(1); ; attempt++ {
		err := action()
		if err == nil {
			return attempt, nil
		}

		for _, strategy := range strategies {
			if !strategy(attempt, err) {
				return attempt, err
			}
		}
	}
}
