package core

import (
	"crypto/md5"
	"time"

	"github.com/google/uuid"
)

// AccountKind distinguishes a Microsoft-authenticated account from a local
// offline profile.
type AccountKind string

const (
	AccountMSA     AccountKind = "msa"
	AccountOffline AccountKind = "offline"
)

// AccountData holds the token chain obtained from the MSA device-code flow
// through Xbox Live, XSTS, and minecraftservices.com.
type AccountData struct {
	MSAAccessToken   string    `json:"msaAccessToken"`
	MSARefreshToken  string    `json:"msaRefreshToken"`
	MSAExpiresAt     time.Time `json:"msaExpiresAt"`
	XBLToken         string    `json:"xblToken,omitempty"`
	XBLUserHash      string    `json:"xblUserHash,omitempty"`
	XSTSToken        string    `json:"xstsToken,omitempty"`
	MinecraftToken   string    `json:"minecraftToken"`
	MinecraftExpires time.Time `json:"minecraftExpires"`
}

// Profile mirrors the public Minecraft profile (session API / self profile).
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Skin string `json:"skin,omitempty"`
	Cape string `json:"cape,omitempty"`
}

// Entitlement records what the account is permitted to do.
type Entitlement struct {
	OwnsMinecraft bool `json:"ownsMinecraft"`
	GamePass      bool `json:"gamePass"`
}

// Account represents a Minecraft account, either online (MSA) or a local
// offline profile.
type Account struct {
	ID         string      `json:"id"` // UUID, stable identifier for this entry
	Kind       AccountKind `json:"kind"`
	PlayerName string      `json:"playerName"`
	PlayerUUID string      `json:"playerUUID"`

	MSA *AccountData `json:"msa,omitempty"`

	Profile     Profile     `json:"profile"`
	Entitlement Entitlement `json:"entitlement"`

	Active bool `json:"active"`

	AddedAt    time.Time `json:"addedAt"`
	LastUsedAt time.Time `json:"lastUsedAt,omitempty"`
}

// IsExpired reports whether the Minecraft access token needs refreshing,
// with a 5-minute buffer. Offline accounts never expire.
func (a *Account) IsExpired() bool {
	if a.Kind == AccountOffline || a.MSA == nil {
		return false
	}
	return time.Now().Add(5 * time.Minute).After(a.MSA.MinecraftExpires)
}

// NeedsMSARefresh reports whether the MSA access token itself has expired
// and a refresh-token exchange is required before touching Xbox Live.
func (a *Account) NeedsMSARefresh() bool {
	if a.Kind == AccountOffline || a.MSA == nil {
		return false
	}
	return time.Now().Add(5 * time.Minute).After(a.MSA.MSAExpiresAt)
}

// OfflineUUID derives the deterministic offline-player UUID vanilla
// clients use: an MD5-namespace UUID (version 3) of "OfflinePlayer:<name>",
// with the version/variant bits forced exactly as the vanilla client does.
func OfflineUUID(name string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = (sum[6] & 0x0f) | 0x30 // version 3
	sum[8] = (sum[8] & 0x3f) | 0x80 // RFC 4122 variant
	u, _ := uuid.FromBytes(sum[:])
	return u
}

// NewOfflineAccount builds an offline Account for the given player name.
func NewOfflineAccount(name string) *Account {
	id := OfflineUUID(name).String()
	return &Account{
		ID:         uuid.NewString(),
		Kind:       AccountOffline,
		PlayerName: name,
		PlayerUUID: id,
		Profile:    Profile{ID: id, Name: name},
		AddedAt:    time.Now(),
	}
}
