// Package ledger persists the run's two append-only artifacts: the backup
// ledger of posts about to be deleted and the human-readable process log.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/blackmichael/bluesky-sweep/internal/domain"
)

// Backup appends line-delimited JSON entries to the backup file. Each line is
// a self-contained record, so entries written before a crash remain
// parseable.
type Backup struct {
	f   *os.File
	enc *json.Encoder
}

// OpenBackup opens the backup file for appending, creating it if needed.
func OpenBackup(path string) (*Backup, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open backup file: %w", err)
	}
	return &Backup{f: f, enc: json.NewEncoder(f)}, nil
}

// Append writes one entry as a single JSON line.
func (b *Backup) Append(entry domain.BackupEntry) error {
	return b.enc.Encode(entry)
}

// Close closes the underlying file.
func (b *Backup) Close() error {
	return b.f.Close()
}

// ProcessLog appends one plain-text record per matched post.
type ProcessLog struct {
	f *os.File
}

// OpenProcessLog opens the process log for appending, creating it if needed.
func OpenProcessLog(path string) (*ProcessLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open process log: %w", err)
	}
	return &ProcessLog{f: f}, nil
}

// Record writes one record for a matched post. Embedded newlines in the text
// are collapsed to spaces so each record stays on a single line.
func (l *ProcessLog) Record(indexedAt time.Time, text string) error {
	text = strings.ReplaceAll(text, "\n", " ")
	_, err := fmt.Fprintf(l.f, "%s UTC  %s\n---\n", indexedAt.UTC().Format("2006-01-02 15:04:05"), text)
	return err
}

// Close closes the underlying file.
func (l *ProcessLog) Close() error {
	return l.f.Close()
}
