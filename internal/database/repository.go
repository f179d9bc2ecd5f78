package database

import (
	"github.com/uptrace/bun"
	"github.com/voxguard/voxguard/internal/database/models"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	guildConfig  *models.GuildConfigModel
	voiceChannel *models.VoiceChannelModel
	deadline     *models.DeadlineModel
	preference   *models.PreferenceModel
	mute         *models.MuteModel
	globalMute   *models.GlobalMuteModel
	ban          *models.BanModel
	spam         *models.SpamModel
	rateLimit    *models.RateLimitModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		guildConfig:  models.NewGuildConfig(db, logger),
		voiceChannel: models.NewVoiceChannel(db, logger),
		deadline:     models.NewDeadline(db, logger),
		preference:   models.NewPreference(db, logger),
		mute:         models.NewMute(db, logger),
		globalMute:   models.NewGlobalMute(db, logger),
		ban:          models.NewBan(db, logger),
		spam:         models.NewSpam(db, logger),
		rateLimit:    models.NewRateLimit(db, logger),
	}
}

// GuildConfig returns the guild config model repository.
func (r *Repository) GuildConfig() *models.GuildConfigModel {
	return r.guildConfig
}

// VoiceChannel returns the voice channel model repository.
func (r *Repository) VoiceChannel() *models.VoiceChannelModel {
	return r.voiceChannel
}

// Deadline returns the pending deadline model repository.
func (r *Repository) Deadline() *models.DeadlineModel {
	return r.deadline
}

// Preference returns the user preference model repository.
func (r *Repository) Preference() *models.PreferenceModel {
	return r.preference
}

// Mute returns the mute history model repository.
func (r *Repository) Mute() *models.MuteModel {
	return r.mute
}

// GlobalMute returns the global mute model repository.
func (r *Repository) GlobalMute() *models.GlobalMuteModel {
	return r.globalMute
}

// Ban returns the ban history model repository.
func (r *Repository) Ban() *models.BanModel {
	return r.ban
}

// Spam returns the spam status model repository.
func (r *Repository) Spam() *models.SpamModel {
	return r.spam
}

// RateLimit returns the command rate limit model repository.
func (r *Repository) RateLimit() *models.RateLimitModel {
	return r.rateLimit
}
