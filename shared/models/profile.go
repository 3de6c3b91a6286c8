package models

import "time"

// Profile is a signed-in user's player identity. The IGN/Discord pair here
// is what invite-completion copies onto a roster, and IGNVerified flips once
// the Mojang verifier has confirmed the IGN and recorded its UUID.
type Profile struct {
	UserID        string     `bson:"_id" json:"userId"`
	IGN           string     `bson:"ign" json:"ign"`
	Discord       string     `bson:"discord" json:"discord"`
	MinecraftUUID string     `bson:"minecraft_uuid,omitempty" json:"minecraftUuid,omitempty"`
	IGNVerified   bool       `bson:"ign_verified" json:"ignVerified"`
	CreatedAt     *time.Time `bson:"created_at,omitempty" json:"createdAt,omitempty"`
	LastLoginAt   *time.Time `bson:"last_login_at,omitempty" json:"lastLoginAt,omitempty"`
}
