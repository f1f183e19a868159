package fastboot

import (
	"strings"

	"github.com/fbflash/fbflash/internal/archive"
)

const scriptSuffix = "/script.txt"

// ParseScript locates the unique entry ending in "/script.txt", and parses
// its contents into an ordered Command sequence. file_refs are resolved
// relative to the script's containing directory (the entry-name prefix).
//
// Parsing is deliberately lenient about file_ref existence: the invariant
// (spec §3) is that Flash commands' entries are validated at Plan
// construction time, and every other command's file_ref is validated
// lazily at execution, so that a malformed archive fails loudly rather
// than silently at the wrong layer.
func ParseScript(a archive.Archive) ([]Command, error) {
	entry, prefix, err := locateScript(a)
	if err != nil {
		return nil, err
	}

	data, err := a.DecodeEntry(entry)
	if err != nil {
		return nil, err
	}

	var commands []Command
	for _, rawLine := range strings.Split(string(data), "\n") {
		line := strings.TrimSuffix(rawLine, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, err := parseLine(line, prefix)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}

func locateScript(a archive.Archive) (archive.Entry, string, error) {
	for _, e := range a.Entries() {
		if strings.HasSuffix(e.Name, scriptSuffix) {
			prefix := strings.TrimSuffix(e.Name, "script.txt")
			return e, prefix, nil
		}
	}
	return archive.Entry{}, "", &ScriptMissingError{}
}

// parseLine tokenizes line on single ASCII spaces only; a tab anywhere in
// the line, or a run of more than one consecutive space between tokens, is
// a parse error (spec §9 open question: tokenization anomalies are not
// inferred, they're rejected). The one exception is run-cmd, whose raw
// text after the first space is kept as-is, repeated spaces included.
func parseLine(line, prefix string) (Command, error) {
	if strings.ContainsRune(line, '\t') {
		return nil, &MalformedLineError{Line: line}
	}

	keyword, rest, hasRest := strings.Cut(line, " ")

	switch keyword {
	case "check-requirements":
		toks, ok := splitExact(rest, hasRest, 1)
		if !ok {
			return nil, &MalformedLineError{Line: line}
		}
		return CheckRequirements{FileRef: prefix + toks[0]}, nil

	case "check-var":
		toks, ok := splitExact(rest, hasRest, 2)
		if !ok {
			return nil, &MalformedLineError{Line: line}
		}
		return CheckVar{Name: toks[0], Expected: toks[1]}, nil

	case "erase":
		toks, ok := splitExact(rest, hasRest, 1)
		if !ok {
			return nil, &MalformedLineError{Line: line}
		}
		return Erase{Partition: toks[0]}, nil

	case "flash":
		toks, ok := splitRange(rest, hasRest, 2, 3)
		if !ok {
			return nil, &MalformedLineError{Line: line}
		}
		slot := SlotCurrent
		if len(toks) == 3 {
			if toks[2] != "other-slot" {
				return nil, &MalformedLineError{Line: line}
			}
			slot = SlotOther
		}
		return Flash{Partition: toks[0], FileRef: prefix + toks[1], Slot: slot}, nil

	case "maybe-cancel-snapshot-update":
		if hasRest {
			return nil, &MalformedLineError{Line: line}
		}
		return MaybeCancelSnapshotUpdate{}, nil

	case "reboot-bootloader":
		if hasRest {
			return nil, &MalformedLineError{Line: line}
		}
		return RebootBootloader{}, nil

	case "run-cmd":
		return RunCmd{Raw: rest}, nil

	case "toggle-active-slot":
		if hasRest {
			return nil, &MalformedLineError{Line: line}
		}
		return ToggleActiveSlot{}, nil

	default:
		return nil, &UnknownCommandError{Line: line}
	}
}

// splitExact splits rest (the line after the keyword and first space) into
// exactly n more single-space-delimited tokens.
func splitExact(rest string, hasRest bool, n int) ([]string, bool) {
	if !hasRest {
		return nil, false
	}
	toks := strings.Split(rest, " ")
	if len(toks) != n {
		return nil, false
	}
	for _, t := range toks {
		if t == "" {
			return nil, false
		}
	}
	return toks, true
}

// splitRange splits rest into between min and max more tokens, inclusive.
func splitRange(rest string, hasRest bool, min, max int) ([]string, bool) {
	if !hasRest {
		return nil, false
	}
	toks := strings.Split(rest, " ")
	if len(toks) < min || len(toks) > max {
		return nil, false
	}
	for _, t := range toks {
		if t == "" {
			return nil, false
		}
	}
	return toks, true
}
