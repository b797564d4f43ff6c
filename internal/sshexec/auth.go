package sshexec

import (
	"net"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// Credentials describes how to authenticate to a host. Password is used
// only when neither a private key nor a running ssh-agent is usable,
// matching §4.D's key -> agent -> password precedence.
type Credentials struct {
	User       string
	PrivateKey string // path to a key file; empty tries the default ~/.ssh/id_rsa
	Password   string
}

// authMethods builds the ssh.AuthMethod list in key -> agent -> password
// order. Earlier methods that fail to even construct (missing key file, no
// agent socket) are simply omitted rather than treated as an error; the
// ssh handshake itself decides which offered method is accepted.
func authMethods(creds Credentials) []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if signer, err := keySigner(creds.PrivateKey); err == nil {
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if signers, err := agentSigners(); err == nil && len(signers) > 0 {
		methods = append(methods, ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
			return signers, nil
		}))
	}

	if creds.Password != "" {
		methods = append(methods, ssh.Password(creds.Password))
	}

	return methods
}

func keySigner(path string) (ssh.Signer, error) {
	if path == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".ssh", "id_rsa")
	}

	key, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKey(key)
}

func agentSigners() ([]ssh.Signer, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, errNoAgent
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, err
	}
	return agent.NewClient(conn).Signers()
}
