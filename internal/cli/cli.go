package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandRun           Command = "run"
	CommandToggle        Command = "toggle"
	CommandSpeak         Command = "speak"
	CommandCycleLanguage Command = "cycle-language"
	CommandCapture       Command = "capture"
	CommandHistory       Command = "history"
	CommandStatus        Command = "status"
	CommandDevices       Command = "devices"
	CommandDoctor        Command = "doctor"
	CommandVersion       Command = "version"
	CommandHelp          Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRun:           {},
	CommandToggle:        {},
	CommandSpeak:         {},
	CommandCycleLanguage: {},
	CommandCapture:       {},
	CommandHistory:       {},
	CommandStatus:        {},
	CommandDevices:       {},
	CommandDoctor:        {},
	CommandVersion:       {},
	CommandHelp:          {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	// CaptureSlot is the slot argument of the capture command.
	CaptureSlot string
	// OnConflict selects conflict handling for capture: "cancel" or
	// "override". Empty means cancel.
	OnConflict string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	haveCommand := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case "--on-conflict":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--on-conflict requires a policy (cancel or override)")
			}
			switch args[i] {
			case "cancel", "override":
				parsed.OnConflict = args[i]
			default:
				return Parsed{}, fmt.Errorf("unknown --on-conflict policy: %s", args[i])
			}
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			if haveCommand {
				if parsed.Command == CommandCapture && parsed.CaptureSlot == "" {
					parsed.CaptureSlot = arg
					continue
				}
				return Parsed{}, fmt.Errorf("unexpected argument %q", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			haveCommand = true
		}
	}

	if parsed.Command == CommandCapture && parsed.CaptureSlot == "" {
		return Parsed{}, errors.New("capture requires a slot argument (toggle, push_to_talk, speak_selection, cycle_language)")
	}
	if parsed.OnConflict != "" && parsed.Command != CommandCapture {
		return Parsed{}, errors.New("--on-conflict is only valid with the capture command")
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  run             Run the dictation daemon (hotkeys, audio, IPC)
  toggle          Start recording or stop+commit when already recording
  speak           Speak the current primary selection aloud
  cycle-language  Advance to the next configured language
  capture SLOT    Interactively rebind a hotkey slot
  history         Print recent transcripts
  status          Print current state
  devices         List available input devices
  doctor          Run configuration and environment checks
  version         Print version information
  help            Show this help

Flags:
  --config PATH        Config file path (default: $XDG_CONFIG_HOME/duatalk/config.jsonc)
  --on-conflict POLICY Capture conflict handling: cancel (default) or override
  -h, --help           Show help
  --version            Show version
`, binaryName)
}
