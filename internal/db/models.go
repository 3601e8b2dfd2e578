package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Verification statuses for Profile.VerificationStatus.
const (
	VerificationNotVerified = "not_verified"
	VerificationPending     = "pending"
	VerificationVerified    = "verified"
	VerificationRejected    = "rejected"
)

// Message privacy modes for Profile.PrivacyMessages.
const (
	PrivacyMessagesAll         = "all"
	PrivacyMessagesMatchedOnly = "matched_only"
	PrivacyMessagesNone        = "none"
)

// Promocode reward kinds.
const (
	RewardStars  = "stars"
	RewardBoosts = "boosts"
	RewardVIP    = "vip"
)

// Payment statuses. A gateway webhook moves a payment from pending to a
// terminal status; activation only ever happens on finished payments.
const (
	PaymentPending  = "pending"
	PaymentFinished = "finished"
	PaymentFailed   = "failed"
)

// Profile is the per-user record: display attributes plus the monetization
// and moderation state the core mutates.
//
// Monetization fields:
//   - Stars/Boosts: integer balances, never negative.
//   - HasVIP + SubscriptionExpiresAt: VIP state; nil expiry means lifetime.
//   - BoostExpiresAt: end of the visibility-boost window, nil when never boosted.
//   - PinnedPosition: admin-assigned slot 1..10 in the browse feed, nil when unset.
type Profile struct {
	ID           string `gorm:"type:char(36);primaryKey"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Name         string `gorm:"size:64;not null"`
	Gender       string `gorm:"size:16"`
	DateOfBirth  *time.Time
	City         string   `gorm:"size:64"`
	Bio          string   `gorm:"type:text"`
	Photos       []string `gorm:"serializer:json;type:text"`
	HeightCM     int

	Stars                 int64 `gorm:"not null;default:0"`
	Boosts                int64 `gorm:"not null;default:0"`
	HasVIP                bool  `gorm:"column:has_vip;not null;default:false"`
	SubscriptionExpiresAt *time.Time
	BoostExpiresAt        *time.Time
	PinnedPosition        *int

	PrivacyMessages  string `gorm:"size:16;not null;default:all"`
	HideOnlineStatus bool   `gorm:"not null;default:false"`
	InvisibleMode    bool   `gorm:"not null;default:false"`

	IsBanned             bool   `gorm:"not null;default:false"`
	IsAdmin              bool   `gorm:"not null;default:false"`
	VerificationStatus   string `gorm:"size:16;not null;default:not_verified"`
	VerificationPhotoURL string `gorm:"size:512"`

	LastSeenAt time.Time
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Like is a directed edge liker -> liked.
//
// Composite PK (LikerID, LikedID) makes repeat likes a unique-key violation,
// which callers treat as "already liked" rather than an error. Likes are
// never mutated or retracted.
type Like struct {
	LikerID   string    `gorm:"type:char(36);primaryKey"`
	LikedID   string    `gorm:"type:char(36);primaryKey;index:idx_liked_created,priority:1"`
	Super     bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_liked_created,priority:2,sort:desc"`
}

// Match is the unordered pair unlocked by mutual likes. The pair is stored
// normalized (UserLoID < UserHiID) under a unique index so that concurrent
// mutual-like detection from both sides can create at most one row; the
// loser of the race gets a duplicate-key error and re-fetches.
type Match struct {
	ID            string `gorm:"type:char(36);primaryKey"`
	UserLoID      string `gorm:"type:char(36);not null;uniqueIndex:idx_match_pair,priority:1;index"`
	UserHiID      string `gorm:"type:char(36);not null;uniqueIndex:idx_match_pair,priority:2;index"`
	LastMessageAt *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (m *Match) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Members returns both sides of the pair.
func (m *Match) Members() (string, string) { return m.UserLoID, m.UserHiID }

// Has reports whether userID is one of the pair.
func (m *Match) Has(userID string) bool {
	return m.UserLoID == userID || m.UserHiID == userID
}

// Message belongs to a match. Read is the only mutable field, flipped in bulk
// by the recipient's read sweep.
type Message struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	MatchID   string    `gorm:"type:char(36);not null;index:idx_match_created,priority:1"`
	SenderID  string    `gorm:"type:char(36);not null"`
	Content   string    `gorm:"type:text;not null"`
	Read      bool      `gorm:"column:is_read;not null;default:false" json:"read"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_match_created,priority:2"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Promocode is an admin-issued reward code. Code is stored uppercase and
// matched case-insensitively by normalizing lookups the same way.
type Promocode struct {
	ID           string `gorm:"type:char(36);primaryKey"`
	Code         string `gorm:"size:64;uniqueIndex;not null"`
	RewardType   string `gorm:"size:16;not null"`
	RewardAmount int64  `gorm:"not null"`
	MaxUses      *int64
	CurrentUses  int64 `gorm:"not null;default:0"`
	ExpiresAt    *time.Time
	IsActive     bool      `gorm:"not null;default:true"`
	CreatedBy    string    `gorm:"type:char(36)"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (p *Promocode) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PromocodeRedemption records one user redeeming one code. The unique pair
// index is the at-most-once guard: a concurrent second redemption fails on
// insert and is reported as "already redeemed".
type PromocodeRedemption struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	PromocodeID  string `gorm:"type:char(36);not null;uniqueIndex:idx_redemption_once,priority:1"`
	UserID       string `gorm:"type:char(36);not null;uniqueIndex:idx_redemption_once,priority:2"`
	RewardType   string `gorm:"size:16;not null"`
	RewardAmount int64  `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// VIPPayment is a VIP-package order keyed by OrderID. ActivatedAt is the
// idempotency guard: a payment is applied to the profile exactly once.
type VIPPayment struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	OrderID     string `gorm:"size:64;uniqueIndex;not null"`
	UserID      string `gorm:"type:char(36);not null;index"`
	PackageType string `gorm:"size:32;not null"`
	VIPDays     int    `gorm:"column:vip_days;not null"`
	BonusStars  int64  `gorm:"not null;default:0"`
	Price       int64  `gorm:"not null"`

	PaymentStatus    string `gorm:"size:16;not null;default:pending"`
	GatewayPaymentID string `gorm:"size:128"`
	PaidAt           *time.Time
	ActivatedAt      *time.Time
	CreatedAt        time.Time `gorm:"autoCreateTime"`
}

func (p *VIPPayment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// CurrencyPayment is a stars/boosts package order, same lifecycle as
// VIPPayment.
type CurrencyPayment struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	OrderID     string `gorm:"size:64;uniqueIndex;not null"`
	UserID      string `gorm:"type:char(36);not null;index"`
	PackageType string `gorm:"size:32;not null"`
	Stars       int64  `gorm:"not null;default:0"`
	Boosts      int64  `gorm:"not null;default:0"`
	Price       int64  `gorm:"not null"`

	PaymentStatus    string `gorm:"size:16;not null;default:pending"`
	GatewayPaymentID string `gorm:"size:128"`
	PaidAt           *time.Time
	ActivatedAt      *time.Time
	CreatedAt        time.Time `gorm:"autoCreateTime"`
}

func (p *CurrencyPayment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// ProfileView records one profile looking at another. The unique ordered
// pair keeps one row per viewer; a repeat view refreshes ViewedAt in place
// instead of piling up rows.
type ProfileView struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement"`
	ViewerID string    `gorm:"type:char(36);not null;uniqueIndex:idx_view_pair,priority:1"`
	ViewedID string    `gorm:"type:char(36);not null;uniqueIndex:idx_view_pair,priority:2;index"`
	ViewedAt time.Time `gorm:"not null"`
}

// BoostHistory is an append-only audit trail. Writes are best-effort: a
// failed insert never rolls back the boost itself, so this table is not a
// reliable count of boosts ever applied.
type BoostHistory struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	BoosterID string    `gorm:"type:char(36);not null;index"`
	BoostedID string    `gorm:"type:char(36);not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
