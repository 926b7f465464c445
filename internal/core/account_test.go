package core

import (
	"os"
	"testing"
	"time"
)

func TestAccountManager_LoadSave(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "launchcore_auth_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	manager := NewAccountManager(tmpDir)

	acc := &Account{
		ID:         "acc1",
		Kind:       AccountMSA,
		PlayerName: "TestPlayer",
		MSA: &AccountData{
			MinecraftToken:   "token123",
			MinecraftExpires: time.Now().Add(1 * time.Hour),
		},
	}

	manager.Add(acc)
	if err := manager.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	manager2 := NewAccountManager(tmpDir)
	if err := manager2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(manager2.Accounts) != 1 {
		t.Errorf("Expected 1 account, got %d", len(manager2.Accounts))
	}
	if manager2.Accounts[0].PlayerName != "TestPlayer" {
		t.Errorf("Expected name TestPlayer, got %s", manager2.Accounts[0].PlayerName)
	}
	if manager2.ActiveID != "acc1" {
		t.Errorf("Expected active ID acc1, got %s", manager2.ActiveID)
	}
}

func TestAccountManager_SetActive(t *testing.T) {
	tmpDir := t.TempDir()
	manager := NewAccountManager(tmpDir)

	manager.Add(&Account{ID: "1", PlayerName: "A"})
	manager.Add(&Account{ID: "2", PlayerName: "B"})

	if manager.ActiveID != "1" {
		t.Errorf("Expected default active 1, got %s", manager.ActiveID)
	}
	if !manager.Accounts[0].Active {
		t.Error("expected first account marked Active")
	}

	if err := manager.SetActive("2"); err != nil {
		t.Errorf("SetActive failed: %v", err)
	}
	if manager.ActiveID != "2" {
		t.Errorf("Expected active 2, got %s", manager.ActiveID)
	}
	if manager.Accounts[0].Active || !manager.Accounts[1].Active {
		t.Error("expected exactly the second account marked Active")
	}

	if err := manager.SetActive("3"); err == nil {
		t.Error("Expected error for missing account, got nil")
	}
}

func TestOfflineUUID_Deterministic(t *testing.T) {
	a := OfflineUUID("Steve")
	b := OfflineUUID("Steve")
	if a != b {
		t.Error("expected deterministic offline UUID for the same name")
	}
	c := OfflineUUID("Alex")
	if a == c {
		t.Error("expected different offline UUIDs for different names")
	}
	// version nibble must be 3, variant bits per RFC 4122.
	bytes := a[:]
	if bytes[6]>>4 != 3 {
		t.Errorf("expected UUID version 3, got %d", bytes[6]>>4)
	}
	if bytes[8]&0xc0 != 0x80 {
		t.Errorf("expected RFC 4122 variant bits, got %08b", bytes[8])
	}
}

func TestAccount_IsExpired(t *testing.T) {
	offline := &Account{Kind: AccountOffline}
	if offline.IsExpired() {
		t.Error("offline accounts never expire")
	}

	msa := &Account{
		Kind: AccountMSA,
		MSA:  &AccountData{MinecraftExpires: time.Now().Add(1 * time.Minute)},
	}
	if !msa.IsExpired() {
		t.Error("expected token within the 5m buffer to count as expired")
	}

	fresh := &Account{
		Kind: AccountMSA,
		MSA:  &AccountData{MinecraftExpires: time.Now().Add(1 * time.Hour)},
	}
	if fresh.IsExpired() {
		t.Error("expected token well in the future to not be expired")
	}
}
