package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zurustar/sputm/pkg/opcode"
	"github.com/zurustar/sputm/pkg/savegame"
	"github.com/zurustar/sputm/pkg/version"
)

// execute runs the command tree in process and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeGame(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Quitter")
	b := opcode.NewBuilder(version.V6)
	b.Op(opcode.V6SystemOps).Byte(opcode.SysQuit)
	b.Label("top").Op(opcode.V6BreakHere).Jump(opcode.V6Jump, "top")

	files := map[string][]byte{
		"game.ini":     []byte("[game]\nname = Quitter\nversion = v6\nlanguage = de\n"),
		"script/1.bin": b.Script(),
	}
	for name, data := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCLIHelp(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, want := range []string{"sputm runs adventure games", "run", "detect", "saves"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output lacks %q:\n%s", want, out)
		}
	}
}

func TestDetect_AddsTarget(t *testing.T) {
	dir := writeGame(t)
	targets := filepath.Join(t.TempDir(), "targets.ini")

	out, err := execute(t, "detect", dir, "--add", "quit", "--targets-file", targets)
	if err != nil {
		t.Fatalf("detect: %v\n%s", err, out)
	}
	for _, want := range []string{"dialect:   v6", "layout:    flat", "language:  de", `added target "quit"`} {
		if !strings.Contains(out, want) {
			t.Errorf("detect output lacks %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "targets", "--targets-file", targets)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "quit") || !strings.Contains(out, dir) {
		t.Errorf("targets output:\n%s", out)
	}
}

func TestDetect_NotAGame(t *testing.T) {
	if _, err := execute(t, "detect", t.TempDir()); err == nil {
		t.Error("detect on an empty directory succeeded")
	}
}

func TestRun_HeadlessTarget(t *testing.T) {
	dir := writeGame(t)
	tmp := t.TempDir()
	targets := filepath.Join(tmp, "targets.ini")
	if _, err := execute(t, "detect", dir, "--add", "quit", "--targets-file", targets); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "run", "quit", "--headless", "--log-level", "error",
		"--targets-file", targets, "--save-db", filepath.Join(tmp, "saves.db"))
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
}

func TestRun_InvalidFlags(t *testing.T) {
	tmp := t.TempDir()
	_, err := execute(t, "run", writeGame(t), "--log-level", "loud",
		"--targets-file", filepath.Join(tmp, "none.ini"), "--save-db", filepath.Join(tmp, "saves.db"))
	if err == nil {
		t.Error("run with an invalid log level succeeded")
	}
}

func TestSaves_ListShowDelete(t *testing.T) {
	db := filepath.Join(t.TempDir(), "saves.db")
	store, err := savegame.Open(db)
	if err != nil {
		t.Fatal(err)
	}
	snap := &savegame.Snapshot{Format: savegame.FormatVersion, Game: version.V6, Name: "at the dock", Tick: 42}
	if err := store.Put("quit", 3, snap); err != nil {
		t.Fatal(err)
	}
	store.Close()

	out, err := execute(t, "saves", "list", "quit", "--save-db", db)
	if err != nil || !strings.Contains(out, "at the dock") || !strings.Contains(out, "SLOT") {
		t.Errorf("list = %q, %v", out, err)
	}

	out, err = execute(t, "saves", "show", "quit", "3", "--save-db", db)
	if err != nil || !strings.Contains(out, "tick:    42") || !strings.Contains(out, "dialect: v6") {
		t.Errorf("show = %q, %v", out, err)
	}

	if _, err := execute(t, "saves", "delete", "quit", "3", "--save-db", db); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := execute(t, "saves", "delete", "quit", "3", "--save-db", db); !errors.Is(err, savegame.ErrSlotNotFound) {
		t.Errorf("second delete = %v, want ErrSlotNotFound", err)
	}
	out, err = execute(t, "saves", "list", "quit", "--save-db", db)
	if err != nil || !strings.Contains(out, "No saves for quit.") {
		t.Errorf("list after delete = %q, %v", out, err)
	}
	if _, err := execute(t, "saves", "show", "quit", "x", "--save-db", db); err == nil {
		t.Error("show with a bad slot succeeded")
	}
}
