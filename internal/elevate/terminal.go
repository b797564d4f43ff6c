package elevate

import "golang.org/x/crypto/ssh/terminal"

func readPassword(fd int) ([]byte, error) {
	return terminal.ReadPassword(fd)
}
