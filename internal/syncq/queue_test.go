package syncq

import (
	"os"
	"path/filepath"
	"testing"

	"tycoon/internal/game"
)

func TestQueuePushLoadSave(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TYCOON_HOME", home)

	entries, err := Load()
	if err != nil || len(entries) != 0 {
		t.Fatalf("empty load = %v, %v", entries, err)
	}
	_ = Push(Entry{SessionID: "a", Command: game.Command{Action: game.ActionBuyInventory, ProductID: 1, Quantity: 3}, IdempotencyKey: "k1"})
	_ = Push(Entry{SessionID: "b", Command: game.Command{Action: game.ActionAdvanceDay}, IdempotencyKey: "k2"})
	_ = Push(Entry{SessionID: "a", Command: game.Command{Action: game.ActionAdvanceDay}, IdempotencyKey: "k3"})

	entries, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 3 || entries[0].Command.Quantity != 3 || entries[0].QueuedAt.IsZero() {
		t.Fatalf("entries = %+v", entries)
	}

	mine, rest := ForSession(entries, "a")
	if len(mine) != 2 || mine[1].IdempotencyKey != "k3" || len(rest) != 1 {
		t.Fatalf("split mine=%+v rest=%+v", mine, rest)
	}
	if err := Save(rest); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, _ = Load()
	if len(entries) != 1 || entries[0].SessionID != "b" {
		t.Fatalf("after save = %+v", entries)
	}

	info, err := os.Stat(filepath.Join(home, "queue.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("queue mode %v", info.Mode().Perm())
	}
}

func TestQueueRejectsCorruptFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TYCOON_HOME", home)
	if err := os.WriteFile(filepath.Join(home, "queue.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}
