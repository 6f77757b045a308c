package sim

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// DebugState is the run loop state as seen by the debug controller.
// PAUSED is entered on a break and left on resume; TERMINATED is only
// reachable from PAUSED via quit.
type DebugState int

const (
	DebugRunning DebugState = iota
	DebugPaused
	DebugTerminated
)

func (s DebugState) String() string {
	switch s {
	case DebugRunning:
		return "RUNNING"
	case DebugPaused:
		return "PAUSED_FOR_DEBUG"
	case DebugTerminated:
		return "TERMINATED"
	default:
		return fmt.Sprintf("DebugState(%d)", int(s))
	}
}

const debugPrompt = "(uamp-sim debug) $ "

const debugHelp = `Commands:
  <empty line> | continue | c | resume   resume the simulation
  quit | exit | q                        terminate the simulation
  interval <n>                           break every n dispatched events
  verbose [on|off]                       echo every dispatched event
  status                                 show clock and queue state
  help                                   show this message
`

// errUsage marks operator input the controller rejects and re-prompts on.
var errUsage = errors.New("Command Usage Error")

// debugTarget is the part of the simulator the operator can adjust.
type debugTarget interface {
	Verbose() bool
	SetVerbose(on bool)
	Status() string
}

// DebugController pauses the run loop and reads operator commands.
type DebugController struct {
	in  *bufio.Reader
	out io.Writer

	enabled  bool
	interval int
	count    int
	state    DebugState
	eof      bool
}

// NewDebugController reads commands from in and writes prompts to out.
// Breaks happen every dispatched event until the interval is changed.
func NewDebugController(in io.Reader, out io.Writer) *DebugController {
	return &DebugController{
		in:       bufio.NewReader(in),
		out:      out,
		interval: 1,
		state:    DebugRunning,
	}
}

// Enable turns interval breaks on or off.
func (d *DebugController) Enable(on bool) {
	d.enabled = on
	d.count = 0
}

func (d *DebugController) Enabled() bool { return d.enabled }

func (d *DebugController) Interval() int { return d.interval }

func (d *DebugController) State() DebugState { return d.state }

// SetInterval sets the number of dispatched events between breaks.
func (d *DebugController) SetInterval(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: interval must be at least 1, got %d", errUsage, n)
	}
	d.interval = n
	return nil
}

// Tick records one dispatched event and reports whether a break is due.
func (d *DebugController) Tick() bool {
	if !d.enabled {
		return false
	}
	d.count++
	return d.count >= d.interval
}

// Pause blocks on operator input until the run is resumed or terminated,
// and returns the resulting state. The break counter restarts at zero.
func (d *DebugController) Pause(target debugTarget) DebugState {
	d.state = DebugPaused
	d.count = 0
	for d.state == DebugPaused {
		if d.eof {
			d.state = DebugRunning
			break
		}
		_, _ = fmt.Fprint(d.out, debugPrompt)
		line, err := d.in.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logrus.Warnf("reading debug input: %v", err)
			}
			// Without input there is nobody to resume the run later.
			d.eof = true
			_, _ = fmt.Fprintln(d.out)
			if strings.TrimSpace(line) == "" {
				d.state = DebugRunning
				break
			}
		}
		if err := d.execute(strings.TrimSpace(line), target); err != nil {
			_, _ = fmt.Fprintln(d.out, err)
		}
	}
	return d.state
}

func (d *DebugController) execute(line string, target debugTarget) error {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		d.state = DebugRunning
		return nil
	}
	cmd, args := tokens[0], tokens[1:]
	switch cmd {
	case "continue", "c", "resume":
		d.state = DebugRunning
	case "quit", "exit", "q":
		_, _ = fmt.Fprintln(d.out, "Terminating Simulation")
		d.state = DebugTerminated
	case "interval":
		if len(args) != 1 {
			return fmt.Errorf("%w: interval command expects one numerical value", errUsage)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: interval command expects one numerical value", errUsage)
		}
		return d.SetInterval(n)
	case "verbose":
		switch {
		case len(args) == 0:
			target.SetVerbose(true)
		case len(args) > 1:
			return fmt.Errorf("%w: verbose command expects at most one argument", errUsage)
		case args[0] == "on":
			target.SetVerbose(true)
		case args[0] == "off":
			target.SetVerbose(false)
		default:
			return fmt.Errorf("%w: verbose command expects 'on' or 'off' for argument", errUsage)
		}
	case "status":
		_, _ = fmt.Fprintf(d.out, "%s interval=%d verbose=%t\n", target.Status(), d.interval, target.Verbose())
	case "help":
		_, _ = fmt.Fprint(d.out, debugHelp)
	default:
		return fmt.Errorf("Unknown command %q, type 'help' for the command list", cmd)
	}
	return nil
}
