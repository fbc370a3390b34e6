package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
)

// newBuildBar creates the progress bar shown while building the graph from
// record files. Returns nil when quiet output is requested.
func newBuildBar(totalFiles int) *progressbar.ProgressBar {
	if quiet {
		return nil
	}
	return progressbar.NewOptions(totalFiles,
		progressbar.OptionSetDescription("Building code graph"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}
