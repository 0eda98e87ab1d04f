package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"strings"
	"unicode"

	"code.wormhole.org/golang/pkg/wormhole"
)

const usageFmt = `
Command Usage: %s [Flags]
  Generate wormhole phase key derivation test vectors.

Flags:
------
`

var defaultPhases = []wormhole.Phase{
	wormhole.PhasePake,
	wormhole.PhaseVersion,
	wormhole.NumberedPhase(0),
	wormhole.NumberedPhase(1),
	wormhole.NumberedPhase(1000),
}

type Cmd struct {
	Out    *json.Encoder
	Phases []wormhole.Phase
	Repeat int
}

func parseFlags(progname string, args []string) *Cmd {
	cmd := Cmd{}

	flags := flag.NewFlagSet(progname, flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, usageFmt, path.Base(progname))
		flags.PrintDefaults()
	}

	var outPath string
	flags.StringVar(&outPath, "o", "-", `path where to save the generated vectors`)

	var phases []wormhole.Phase
	const phaseDoc = `
	Phase name, pake, version or a decimal number.
	Add more than 1 by repeating this option.
	Defaults to %+v.
	`
	flags.Func("ph", dedent(fmt.Sprintf(phaseDoc, defaultPhases)), func(v string) error {
		phase, err := wormhole.ParsePhase(v)
		if nil == err {
			phases = append(phases, phase)
		}
		return err
	})

	var repeat uint
	flags.UintVar(&repeat, "n", 2, `number of vectors to generate for each phase`)

	flags.Parse(args)

	// set cmd.Out
	var err error
	var outFile *os.File
	if "-" != outPath {
		outFile, err = os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if nil != err {
			log.Fatalf("Failed opening %s, got error %v", outPath, err)
		}
	} else {
		outFile = os.Stdout
	}
	enc := json.NewEncoder(outFile)
	enc.SetIndent("", "  ")
	cmd.Out = enc

	// set cmd.Phases
	if len(phases) == 0 {
		phases = defaultPhases
	}
	cmd.Phases = phases

	// set cmd.Repeat
	cmd.Repeat = int(repeat)

	return &cmd
}

func main() {
	cmd := parseFlags(os.Args[0], os.Args[1:])

	var err error
	var vectors []wormhole.TestVector
	for _, phase := range cmd.Phases {
		for _ = range cmd.Repeat {
			vector := wormhole.TestVector{}
			err = fillVector(phase, &vector)
			if nil != err {
				log.Fatalf("Failed generating TestVector, got error %v", err)
			}
			vectors = append(vectors, vector)
		}
	}
	err = cmd.Out.Encode(vectors)
	if nil != err {
		log.Fatalf("Failed serializing []TestVector, got error %v", err)
	}
}

func dedent(multilines string) string {
	var sb strings.Builder
	for line := range strings.Lines(strings.TrimRightFunc(multilines, unicode.IsSpace)) {
		sb.WriteString(strings.TrimLeftFunc(line, unicode.IsSpace))
	}
	return sb.String()
}
