package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"
	"unicode"

	"code.wormhole.org/golang/internal/observability"
	"code.wormhole.org/golang/internal/transport"
	"code.wormhole.org/golang/pkg/algos"
	"code.wormhole.org/golang/pkg/mailbox/boltdb"
	"code.wormhole.org/golang/pkg/spake2"
	"code.wormhole.org/golang/pkg/wormhole"
)

const usageFmt = `
Command Usage: %s [Flags]
  Run the magic-wormhole pake phase and print the hex encoded session key.
  Frames are exchanged as JSON lines over stdin/stdout unless -mailbox is set.

Flags:
------
`

const defaultAppID = "lothar.com/wormhole/text-or-file-xfer"

type Cmd struct {
	Code    string
	AppID   wormhole.AppID
	Side    wormhole.Side
	Group   string
	Mailbox string
	Version bool
	Timeout time.Duration
	Logger  *slog.Logger
}

func parseFlags(progname string, args []string) *Cmd {
	cmd := Cmd{}

	flags := flag.NewFlagSet(progname, flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, usageFmt, path.Base(progname))
		flags.PrintDefaults()
	}

	flags.StringVar(&cmd.Code, "code", "", `password shared with the other side`)

	var appID string
	flags.StringVar(&appID, "app-id", defaultAppID, `application identifier, both sides shall use the same`)

	var side string
	const sideDoc = `
	identifier of this side of the exchange.
	Defaults to 10 random hex digits.
	`
	flags.StringVar(&side, "side", "", dedent(sideDoc))

	const groupDoc = `
	SPAKE2 group name, one of %+v.
	Only %s interoperates with python peers.
	`
	flags.StringVar(&cmd.Group, "group", algos.GROUP_ED25519, dedent(fmt.Sprintf(groupDoc, algos.ListGroups(), algos.GROUP_ED25519)))

	const mailboxDoc = `
	path of a boltdb file shared with the other side.
	Defaults to exchanging frames over stdin/stdout.
	`
	flags.StringVar(&cmd.Mailbox, "mailbox", "", dedent(mailboxDoc))

	const versionDoc = `
	also run the version phase, and print OK followed by the hex encoded verifier
	instead of the session key.
	`
	flags.BoolVar(&cmd.Version, "version", false, dedent(versionDoc))

	flags.DurationVar(&cmd.Timeout, "timeout", 2*time.Minute, `maximum duration of the exchange`)

	var verbose bool
	flags.BoolVar(&verbose, "v", false, `log debug messages to stderr`)

	flags.Parse(args)

	if "" == cmd.Code {
		fmt.Fprintln(os.Stderr, "missing -code")
		flags.Usage()
		os.Exit(2)
	}
	_, err := algos.GetGroup(cmd.Group)
	if nil != err {
		log.Fatalf("Invalid -group %s, got error %v", cmd.Group, err)
	}
	cmd.AppID = wormhole.AppID(appID)
	cmd.Side = wormhole.Side(side)
	if "" == cmd.Side {
		cmd.Side = wormhole.NewSide()
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	cmd.Logger = observability.NewTextLogger(os.Stderr, level)

	return &cmd
}

// connect returns the wormhole.Conn selected by the command flags.
func (self *Cmd) connect(ctx context.Context) (wormhole.Conn, error) {
	if "" != self.Mailbox {
		conn, err := boltdb.Open(boltdb.Cfg{Path: self.Mailbox, AppID: self.AppID, Side: self.Side})
		if nil != err {
			return nil, fmt.Errorf("Failed opening mailbox %s, got error %w", self.Mailbox, err)
		}
		return conn, nil
	}

	lt := transport.NewLineTransport(os.Stdin, os.Stdout)
	conn, err := transport.NewStreamConn(ctx, lt, transport.StreamCfg{AppID: self.AppID, Side: self.Side})
	if nil != err {
		return nil, fmt.Errorf("Failed starting stream, got error %w", err)
	}
	return conn, nil
}

func (self *Cmd) run(ctx context.Context, out io.Writer) error {
	ctx = observability.WithLogger(ctx, self.Logger)
	ctx, cancel := context.WithTimeout(ctx, self.Timeout)
	defer cancel()

	conn, err := self.connect(ctx)
	if nil != err {
		return err
	}

	if !self.Version {
		params, err := spake2.NewParamsWithGroup(self.Group, []byte(self.AppID))
		if nil != err {
			return fmt.Errorf("Failed loading SPAKE2 params, got error %w", err)
		}
		key, err := wormhole.ExchangePake(ctx, conn, params, []byte(self.Code))
		if nil != err {
			return fmt.Errorf("Failed pake exchange, got error %w", err)
		}
		defer key.Destroy()
		keybytes := key.Expose()
		defer clear(keybytes)
		_, err = fmt.Fprintln(out, hex.EncodeToString(keybytes))
		return err
	}

	session, err := wormhole.Handshake(ctx, conn, []byte(self.Code), wormhole.HandshakeCfg{Group: self.Group})
	if nil != err {
		return fmt.Errorf("Failed handshake, got error %w", err)
	}
	defer session.Close()
	verifier, err := session.Verifier()
	if nil != err {
		return fmt.Errorf("Failed deriving verifier, got error %w", err)
	}
	_, err = fmt.Fprintf(out, "OK %s\n", hex.EncodeToString(verifier))
	return err
}

func main() {
	cmd := parseFlags(os.Args[0], os.Args[1:])

	err := cmd.run(context.Background(), os.Stdout)
	if nil != err {
		log.Fatal(err)
	}
}

func dedent(multilines string) string {
	var sb strings.Builder
	for line := range strings.Lines(strings.TrimRightFunc(multilines, unicode.IsSpace)) {
		sb.WriteString(strings.TrimLeftFunc(line, unicode.IsSpace))
	}
	return sb.String()
}
