package imagebuild

import (
	"time"

	"github.com/cyris-project/cyris/internal/cyrierr"
	"github.com/cyris-project/cyris/internal/sshexec"
)

// Distribute copies the built image to every target host in parallel,
// bounded by concurrency, per §4.G's distribution phase.
func Distribute(imagePath string, hosts []string, creds sshexec.Credentials, remotePath string, concurrency int, timeout time.Duration) error {
	var failures []string

	sem := make(chan struct{}, concurrency)
	errs := make(chan error, len(hosts))

	for _, host := range hosts {
		host := host
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			client := sshexec.NewClient(host, creds)
			errs <- client.Put(imagePath, remotePath, timeout)
		}()
	}

	for range hosts {
		if err := <-errs; err != nil {
			failures = append(failures, err.Error())
		}
	}

	if len(failures) > 0 {
		return cyrierr.New(cyrierr.Resource, "image distribution failed on "+joinErrs(failures))
	}
	return nil
}

func joinErrs(errs []string) string {
	out := errs[0]
	for _, e := range errs[1:] {
		out += "; " + e
	}
	return out
}
