package imagebuild

import (
	"github.com/hpcloud/tail"

	"github.com/cyris-project/cyris/internal/cyrislog"
)

// StreamLog tails a builder tool's output file (Follow/ReOpen/Poll), so
// a long-running image build's progress shows up in cyrislog as it
// happens rather than only once the tool exits.
func StreamLog(path string, done <-chan struct{}) error {
	t, err := tail.TailFile(path, tail.Config{Follow: true, ReOpen: true, Poll: true})
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-done:
				t.Stop()
				return
			case line, ok := <-t.Lines:
				if !ok {
					return
				}
				cyrislog.Info("imagebuild: %s", line.Text)
			}
		}
	}()

	return nil
}
