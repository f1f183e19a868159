package fastboot

import "github.com/fbflash/fbflash/internal/archive"

// Plan is a FlashPlan: an ordered command sequence plus the precomputed
// aggregate size used to normalize progress. It is built once per archive
// and never mutated afterward (spec §3 lifecycle).
type Plan struct {
	Commands        []Command
	TotalFlashBytes int64
}

// NewPlan resolves every Flash command's file_ref against a and sums their
// uncompressed sizes into TotalFlashBytes. Unlike ScriptParser, this fails
// immediately — MissingEntryError — if a Flash command's entry doesn't
// exist, since total-size computation would otherwise be undefined
// (spec §4.2).
func NewPlan(commands []Command, a archive.Archive) (*Plan, error) {
	var total int64
	for _, c := range commands {
		f, ok := c.(Flash)
		if !ok {
			continue
		}
		entry, found := a.Find(f.FileRef)
		if !found {
			return nil, &MissingEntryError{FileRef: f.FileRef}
		}
		total += entry.UncompressedSize
	}
	return &Plan{Commands: commands, TotalFlashBytes: total}, nil
}
