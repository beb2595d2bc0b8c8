// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"testing"

	"themesandbox/internal/models"
)

func TestThemeCreateAndFind(t *testing.T) {
	db := testDB(t)
	owner := makeUser(t, db, "theme-owner@store.test")
	themes := NewThemeStore(db)

	theme := makeTheme(t, db, owner.ID, "Store Test Theme")
	if theme.Key == "" || len(theme.Key) != 32 {
		t.Fatalf("key = %q, want 32 hex chars", theme.Key)
	}

	byID, err := themes.FindByID(theme.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byID == nil || byID.Name != "Store Test Theme" {
		t.Fatalf("FindByID = %+v", byID)
	}

	byKey, err := themes.FindByKey(theme.Key)
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if byKey == nil || byKey.ID != theme.ID {
		t.Fatalf("FindByKey = %+v", byKey)
	}

	missing, err := themes.FindByKey("no-such-key")
	if err != nil {
		t.Fatalf("FindByKey missing: %v", err)
	}
	if missing != nil {
		t.Fatal("FindByKey returned a theme for an unknown key")
	}
}

func TestThemeRotateKey(t *testing.T) {
	db := testDB(t)
	owner := makeUser(t, db, "rotate-owner@store.test")
	themes := NewThemeStore(db)

	theme := makeTheme(t, db, owner.ID, "Rotate Test Theme")
	oldKey := theme.Key

	newKey, err := themes.RotateKey(theme.ID)
	if err != nil {
		t.Fatalf("RotateKey: %v", err)
	}
	if newKey == oldKey {
		t.Fatal("key unchanged after rotation")
	}

	stale, err := themes.FindByKey(oldKey)
	if err != nil {
		t.Fatalf("FindByKey old: %v", err)
	}
	if stale != nil {
		t.Fatal("old key still resolves after rotation")
	}
}

func TestThemeListByUser(t *testing.T) {
	db := testDB(t)
	owner := makeUser(t, db, "list-owner@store.test")
	other := makeUser(t, db, "list-other@store.test")
	themes := NewThemeStore(db)

	makeTheme(t, db, owner.ID, "List Theme A")
	makeTheme(t, db, owner.ID, "List Theme B")
	makeTheme(t, db, other.ID, "List Theme C")

	mine, err := themes.ListByUser(owner.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("ListByUser = %d themes, want 2", len(mine))
	}
	for _, th := range mine {
		if th.UserID != owner.ID {
			t.Errorf("listed theme %d owned by %s", th.ID, th.UserID)
		}
	}
}

func TestThemeColorSchemeLifecycle(t *testing.T) {
	db := testDB(t)
	owner := makeUser(t, db, "scheme-owner@store.test")
	themes := NewThemeStore(db)
	schemes := NewColorSchemeStore(db)

	ensureDefaultScheme(t, db)
	theme := makeTheme(t, db, owner.ID, "Scheme Test Theme")

	scheme, err := schemes.CreateFromDefault(theme.ID, theme.Name)
	if err != nil {
		t.Fatalf("CreateFromDefault: %v", err)
	}
	if scheme.ThemeID == nil || *scheme.ThemeID != theme.ID {
		t.Fatalf("scheme theme_id = %v", scheme.ThemeID)
	}
	if len(scheme.Colors) == 0 {
		t.Fatal("scheme copied no colors from the default")
	}

	if err := themes.SetColorScheme(theme.ID, &scheme.ID); err != nil {
		t.Fatalf("SetColorScheme: %v", err)
	}

	updated, err := schemes.Update(scheme.ID, "Renamed", []models.ColorEntry{
		{Name: "primary", Hex: "123456"},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Renamed" || len(updated.Colors) != 1 {
		t.Fatalf("Update = %+v", updated)
	}

	// Clear the pointer before deleting, the order the destroy handler
	// uses.
	if err := themes.SetColorScheme(theme.ID, nil); err != nil {
		t.Fatalf("clear SetColorScheme: %v", err)
	}
	if err := schemes.Delete(scheme.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	gone, err := schemes.FindByID(scheme.ID)
	if err != nil {
		t.Fatalf("FindByID after delete: %v", err)
	}
	if gone != nil {
		t.Fatal("scheme still present after delete")
	}
}

func TestThemeDeleteCascadesSchemes(t *testing.T) {
	db := testDB(t)
	owner := makeUser(t, db, "cascade-owner@store.test")
	themes := NewThemeStore(db)
	schemes := NewColorSchemeStore(db)

	theme := makeTheme(t, db, owner.ID, "Cascade Test Theme")
	scheme, err := schemes.CreateFromDefault(theme.ID, theme.Name)
	if err != nil {
		t.Fatalf("CreateFromDefault: %v", err)
	}

	if err := themes.Delete(theme.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	gone, err := schemes.FindByID(scheme.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if gone != nil {
		t.Fatal("scheme survived theme deletion")
	}
}
