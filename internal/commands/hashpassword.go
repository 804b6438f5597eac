package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli"
	"golang.org/x/term"

	"cyclecal/internal/web"
)

func hashPasswordFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "username, u",
			Usage: "username to print in the basic_auth snippet",
			Value: "admin",
		},
	}
}

// hashPassword prompts for a password twice and prints a basic_auth block
// ready to paste into the config. Input is masked on a terminal and read
// line by line otherwise.
func (r *runner) hashPassword(c *cli.Context) error {
	prompt := newPasswordPrompt(r.env.Stdin, r.env.Stderr)

	password, err := prompt.read("Enter password:   ")
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}
	confirm, err := prompt.read("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	hash, err := web.HashPassword(password)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.env.Stdout, "basic_auth:\n  username: %q\n  password_hash: %q\n", c.String("username"), hash)
	return nil
}

type passwordPrompt struct {
	fd     int
	tty    bool
	lines  *bufio.Reader
	stderr io.Writer
}

func newPasswordPrompt(in io.Reader, stderr io.Writer) *passwordPrompt {
	p := &passwordPrompt{lines: bufio.NewReader(in), stderr: stderr}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd, p.tty = int(f.Fd()), true
	}
	return p
}

func (p *passwordPrompt) read(label string) (string, error) {
	fmt.Fprint(p.stderr, label)
	if p.tty {
		b, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := p.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
