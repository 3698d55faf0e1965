package state

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	_ "modernc.org/sqlite"
)

// setupTestDB creates an in-memory SQLite database with the schema initialized.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	// A single connection keeps the in-memory database alive across queries.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		t.Fatalf("failed to init schema: %v", err)
	}

	return db
}

func TestLoadFavorites_Empty(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	favs, err := loadFavorites(db)
	if err != nil {
		t.Fatalf("loadFavorites failed: %v", err)
	}
	if len(favs) != 0 {
		t.Errorf("expected no favorites, got %d", len(favs))
	}
}

func TestSaveFavorites_PreservesOrder(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	want := []Favorite{
		{Title: "B", URL: "https://b", Duration: 120},
		{Title: "A", URL: "https://a", Duration: 0},
		{Title: "C", URL: "https://c", Duration: 300},
	}
	if err := saveFavorites(db, want); err != nil {
		t.Fatalf("saveFavorites failed: %v", err)
	}

	got, err := loadFavorites(db)
	if err != nil {
		t.Fatalf("loadFavorites failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("favorites[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSaveFavorites_OverwritesPrevious(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_ = saveFavorites(db, []Favorite{{Title: "A", URL: "a"}, {Title: "B", URL: "b"}})
	if err := saveFavorites(db, []Favorite{{Title: "C", URL: "c"}}); err != nil {
		t.Fatalf("saveFavorites failed: %v", err)
	}

	got, _ := loadFavorites(db)
	if len(got) != 1 || got[0].URL != "c" {
		t.Errorf("favorites = %+v, want only c", got)
	}
}

func TestSaveFavorites_FailedWriteKeepsPrevious(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_ = saveFavorites(db, []Favorite{{Title: "A", URL: "a"}})

	// Duplicate URL violates the unique constraint and rolls back.
	err := saveFavorites(db, []Favorite{{Title: "X", URL: "x"}, {Title: "Y", URL: "x"}})
	if err == nil {
		t.Fatal("expected constraint error")
	}

	got, _ := loadFavorites(db)
	if len(got) != 1 || got[0].URL != "a" {
		t.Errorf("favorites = %+v, want previous list", got)
	}
}

func TestPreferences_DefaultWhenEmpty(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	p, err := getPreferences(db)
	if err != nil {
		t.Fatalf("getPreferences failed: %v", err)
	}
	if *p != DefaultPreferences {
		t.Errorf("preferences = %+v, want defaults", *p)
	}
}

func TestPreferences_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := savePreferences(db, Preferences{Volume: 0.8, Loop: true}); err != nil {
		t.Fatalf("savePreferences failed: %v", err)
	}
	if err := savePreferences(db, Preferences{Volume: 0.3, Loop: true}); err != nil {
		t.Fatalf("savePreferences failed: %v", err)
	}

	p, _ := getPreferences(db)
	if p.Volume != 0.3 || !p.Loop {
		t.Errorf("preferences = %+v, want {0.3 true}", *p)
	}
	if !p.Saved {
		t.Error("Saved = false, want true for a stored row")
	}
}

func TestManager_SavePreferences_Debounced(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, err := Open(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer m.Close()

		m.SavePreferences(Preferences{Volume: 0.1})
		m.SavePreferences(Preferences{Volume: 0.9, Loop: true})

		p, _ := m.GetPreferences()
		if *p != DefaultPreferences {
			t.Errorf("preferences saved before debounce: %+v", *p)
		}

		time.Sleep(saveDebounce + 10*time.Millisecond)
		synctest.Wait()

		p, _ = m.GetPreferences()
		if p.Volume != 0.9 || !p.Loop {
			t.Errorf("preferences = %+v, want {0.9 true}", *p)
		}
	})
}

func TestManager_Close_FlushesPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	m.SavePreferences(Preferences{Volume: 0.7})
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	m2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer m2.Close()

	p, _ := m2.GetPreferences()
	if p.Volume != 0.7 {
		t.Errorf("Volume = %v, want 0.7", p.Volume)
	}
}

func TestManager_Favorites_Persist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := m.SaveFavorites([]Favorite{{Title: "A", URL: "a", Duration: 10}}); err != nil {
		t.Fatalf("SaveFavorites failed: %v", err)
	}
	m.Close()

	m2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer m2.Close()

	favs, err := m2.LoadFavorites()
	if err != nil {
		t.Fatalf("LoadFavorites failed: %v", err)
	}
	if len(favs) != 1 || favs[0].Title != "A" {
		t.Errorf("favorites = %+v", favs)
	}
}
