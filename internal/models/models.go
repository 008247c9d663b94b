/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"time"
)

// PlaySource enumerates what initiated a delivery.
type PlaySource string

const (
	PlaySourceManual   PlaySource = "manual"
	PlaySourceExplicit PlaySource = "explicit"
	PlaySourceRotation PlaySource = "rotation"
)

// PlayEvent records a single track delivery to a tenant channel.
type PlayEvent struct {
	ID        string     `gorm:"type:uuid;primaryKey"`
	TenantID  int64      `gorm:"index"`
	TrackID   string     `gorm:"index"`
	Title     string     `gorm:"type:text"`
	Artist    string     `gorm:"type:text"`
	Source    PlaySource `gorm:"type:varchar(16);index"`
	CreatedAt time.Time  `gorm:"index"`
}
