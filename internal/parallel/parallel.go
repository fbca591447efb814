// Package parallel provides the per-channel goroutine fan-out shared by the
// offline effects.
package parallel

import "sync"

// ForEachChannel runs fn once per channel concurrently and returns the first
// error encountered, lowest channel index winning.
func ForEachChannel(channels int, fn func(ch int) error) error {
	var wg sync.WaitGroup

	errs := make([]error, channels)

	for ch := range channels {
		wg.Add(1)

		go func() {
			defer wg.Done()

			errs[ch] = fn(ch)
		}()
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
