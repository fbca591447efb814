package effects

import (
	"fmt"

	"github.com/cwbudde/algo-spectral/dsp/buffer"
	"github.com/cwbudde/algo-spectral/internal/parallel"
)

// channelFunc processes one channel's region samples and returns the
// replacement samples. The returned slice length is the effect's contract;
// region-preserving effects return len(in) samples.
type channelFunc func(ch int, in []float64) ([]float64, error)

// validateCall covers the preconditions shared by every effect entry point.
func validateCall(buf *buffer.Buffer, region buffer.Region) error {
	if buf == nil || buf.Len() == 0 {
		return fmt.Errorf("effects: buffer must be non-nil and non-empty")
	}

	if err := region.Validate(buf.Len()); err != nil {
		return fmt.Errorf("effects: %w", err)
	}

	return nil
}

// processRegion clones buf and replaces region on every channel with the
// output of process, which must return exactly region.Len() samples.
func processRegion(buf *buffer.Buffer, region buffer.Region, process channelFunc) (*buffer.Buffer, error) {
	if err := validateCall(buf, region); err != nil {
		return nil, err
	}

	out := buf.Clone()

	err := parallel.ForEachChannel(buf.Channels(), func(ch int) error {
		processed, err := process(ch, buf.Channel(ch)[region.Start:region.End])
		if err != nil {
			return err
		}

		if len(processed) != region.Len() {
			return fmt.Errorf("effects: channel %d produced %d samples, want %d",
				ch, len(processed), region.Len())
		}

		copy(out.Channel(ch)[region.Start:region.End], processed)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
