package janitor_test

import (
	"os"
	"path/filepath"
	"testing"

	"storypack/internal/janitor"
	"storypack/internal/logging"
	"storypack/internal/testsupport"
)

func TestDeleteSourceArtInsideBase(t *testing.T) {
	base := t.TempDir()
	art := filepath.Join(base, "dinos", "dinos_art.png")
	testsupport.WriteFile(t, art, 10)

	j := janitor.New(logging.NewNop())
	deleted, err := j.DeleteSourceArt(art, base)
	if err != nil {
		t.Fatalf("DeleteSourceArt: %v", err)
	}
	if !deleted {
		t.Fatal("expected deletion")
	}
	if _, err := os.Stat(art); !os.IsNotExist(err) {
		t.Fatal("art file still exists")
	}
}

func TestDeleteSourceArtRefusesOutsideBase(t *testing.T) {
	base := t.TempDir()
	outside := filepath.Join(t.TempDir(), "elsewhere.png")
	testsupport.WriteFile(t, outside, 10)

	j := janitor.New(logging.NewNop())
	deleted, err := j.DeleteSourceArt(outside, base)
	if err != nil {
		t.Fatalf("a path outside base is a skip, not an error: %v", err)
	}
	if deleted {
		t.Fatal("file outside base was deleted")
	}
	if _, statErr := os.Stat(outside); statErr != nil {
		t.Fatalf("file outside base should be untouched: %v", statErr)
	}
}

func TestDeleteSourceArtRefusesSymlinkEscape(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(t.TempDir(), "precious.png")
	testsupport.WriteFile(t, target, 10)

	link := filepath.Join(base, "art.png")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	j := janitor.New(logging.NewNop())
	deleted, err := j.DeleteSourceArt(link, base)
	if err != nil || deleted {
		t.Fatalf("symlink escape should skip cleanly: deleted=%v err=%v", deleted, err)
	}
	if _, statErr := os.Stat(target); statErr != nil {
		t.Fatalf("symlink target should be untouched: %v", statErr)
	}
}

func TestDeleteSourceArtFollowsSymlinkWithinBase(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "real", "art.png")
	testsupport.WriteFile(t, target, 10)

	link := filepath.Join(base, "link.png")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	j := janitor.New(logging.NewNop())
	deleted, err := j.DeleteSourceArt(link, base)
	if err != nil {
		t.Fatalf("DeleteSourceArt: %v", err)
	}
	if !deleted {
		t.Fatal("expected deletion of the resolved target")
	}
	if _, statErr := os.Stat(target); !os.IsNotExist(statErr) {
		t.Fatal("resolved target still exists")
	}
}

func TestDeleteSourceArtMissingFile(t *testing.T) {
	base := t.TempDir()
	j := janitor.New(logging.NewNop())

	deleted, err := j.DeleteSourceArt(filepath.Join(base, "gone.png"), base)
	if err != nil {
		t.Fatalf("missing art should be a clean no-op, got %v", err)
	}
	if deleted {
		t.Fatal("nothing existed to delete")
	}
}

func TestDeleteSourceArtEmptyPath(t *testing.T) {
	j := janitor.New(logging.NewNop())
	deleted, err := j.DeleteSourceArt("", t.TempDir())
	if deleted || err != nil {
		t.Fatalf("empty path: deleted=%v err=%v", deleted, err)
	}
}

func TestDeleteSourceArtRefusesBaseItself(t *testing.T) {
	base := t.TempDir()
	j := janitor.New(logging.NewNop())

	deleted, err := j.DeleteSourceArt(base, base)
	if err != nil || deleted {
		t.Fatalf("base dir itself must never be deleted: deleted=%v err=%v", deleted, err)
	}
	if _, statErr := os.Stat(base); statErr != nil {
		t.Fatalf("base dir should be untouched: %v", statErr)
	}
}

func TestPurgeRemovesTreesAndIgnoresMissing(t *testing.T) {
	scratch := t.TempDir()
	nested := filepath.Join(scratch, "work", "deep", "file.bin")
	testsupport.WriteFile(t, nested, 32)

	j := janitor.New(logging.NewNop())
	j.Purge(filepath.Join(scratch, "work"), filepath.Join(scratch, "never-existed"), "")

	if _, err := os.Stat(filepath.Join(scratch, "work")); !os.IsNotExist(err) {
		t.Fatal("scratch tree survived purge")
	}
}
