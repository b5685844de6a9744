package journalmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	cm "github.com/steelcutops/usergate/usergate/commandmanager"
)

// FileJournalManager keeps one JSON document per run in a directory. With
// Git set, the directory must be a git work tree and every change is
// committed.
type FileJournalManager struct {
	Dir            string
	Git            bool
	CommandManager cm.CommandManager

	// serializes git invocations, which share the index lock
	mu sync.Mutex
}

func NewFileJournalManager(dir string) (*FileJournalManager, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	return &FileJournalManager{
		Dir:            dir,
		CommandManager: &cm.UnixCommandManager{Hostname: "localhost"},
	}, nil
}

func (j *FileJournalManager) Save(ctx context.Context, entry Entry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", err
	}

	filePath := j.path(entry.ID)
	if err := os.WriteFile(filePath, data, 0o640); err != nil {
		return "", err
	}

	if j.Git {
		msg := fmt.Sprintf("usergate %s on %s: %s", entry.Mode, entry.Host, entry.Status)
		if err := j.gitCommit(ctx, filePath, msg); err != nil {
			return "", err
		}
	}

	logrus.WithFields(logrus.Fields{
		"run":    entry.ID,
		"host":   entry.Host,
		"status": entry.Status,
	}).Debug("Saved journal entry")
	return entry.ID, nil
}

func (j *FileJournalManager) Get(ctx context.Context, id string) (Entry, error) {
	data, err := os.ReadFile(j.path(id))
	if err != nil {
		return Entry{}, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("journal entry %s: %w", id, err)
	}
	return entry, nil
}

func (j *FileJournalManager) List(ctx context.Context) ([]Entry, error) {
	files, err := os.ReadDir(j.Dir)
	if err != nil {
		return nil, err
	}

	entries := []Entry{}
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		entry, err := j.Get(ctx, strings.TrimSuffix(file.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Timestamp.Before(entries[b].Timestamp)
	})
	return entries, nil
}

func (j *FileJournalManager) Delete(ctx context.Context, id string) error {
	filePath := j.path(id)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("journal entry %s not found", id)
	}

	if err := os.Remove(filePath); err != nil {
		return err
	}

	if j.Git {
		return j.gitCommit(ctx, filePath, fmt.Sprintf("Deleted journal entry %s", id))
	}
	return nil
}

func (j *FileJournalManager) Exists(ctx context.Context, id string) (bool, error) {
	if _, err := os.Stat(j.path(id)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (j *FileJournalManager) path(id string) string {
	return filepath.Join(j.Dir, id+".json")
}

func (j *FileJournalManager) gitCommit(ctx context.Context, filePath, message string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, args := range [][]string{
		{"-C", j.Dir, "add", "--all", "--", filepath.Base(filePath)},
		{"-C", j.Dir, "commit", "-m", message},
	} {
		result, err := j.CommandManager.RunLocal(ctx, cm.CommandConfig{Command: "git", Args: args})
		if err != nil {
			return fmt.Errorf("git %s: %w: %s", args[2], err, strings.TrimSpace(result.STDERR))
		}
	}
	return nil
}
